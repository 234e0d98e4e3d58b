package store

import (
	"errors"
	"sort"
	"sync"

	"quotecraft/internal/compare/model"
)

var ErrNotFound = errors.New("comparison not found")

// Store keeps comparisons by id.
type Store interface {
	Save(c *model.ComparisonResult) error
	Get(id string) (*model.ComparisonResult, error)
	List() []*model.ComparisonResult
	// Update applies fn to a private copy and stores it when fn returns nil.
	Update(id string, fn func(c *model.ComparisonResult) error) (*model.ComparisonResult, error)
}

// Memory is the process-local Store. Callers always receive copies.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*model.ComparisonResult
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]*model.ComparisonResult)}
}

func (m *Memory) Save(c *model.ComparisonResult) error {
	if c == nil || c.ID == "" {
		return errors.New("store: comparison without id")
	}
	cp := clone(c)
	m.mu.Lock()
	m.items[c.ID] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(id string) (*model.ComparisonResult, error) {
	m.mu.RLock()
	c, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

// List returns all comparisons, oldest first.
func (m *Memory) List() []*model.ComparisonResult {
	m.mu.RLock()
	out := make([]*model.ComparisonResult, 0, len(m.items))
	for _, c := range m.items {
		out = append(out, clone(c))
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Memory) Update(id string, fn func(c *model.ComparisonResult) error) (*model.ComparisonResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := clone(cur)
	if err := fn(next); err != nil {
		return nil, err
	}
	m.items[id] = next
	return clone(next), nil
}

// clone copies the slices a caller could mutate.
func clone(c *model.ComparisonResult) *model.ComparisonResult {
	cp := *c
	cp.Quotes = append([]model.VendorScore(nil), c.Quotes...)
	if c.Matches != nil {
		cp.Matches = make([]model.VendorMatch, len(c.Matches))
		for i, vm := range c.Matches {
			vm.Matches = append([]model.MatchedItem{}, vm.Matches...)
			vm.Unmatched = append([]model.UnmatchedItem{}, vm.Unmatched...)
			cp.Matches[i] = vm
		}
	}
	cp.Selections = append([]model.Selection{}, c.Selections...)
	cp.AuditLog = append([]model.AuditLogEntry(nil), c.AuditLog...)
	cp.PolicyEvaluation.Violations = append([]model.PolicyViolation{}, c.PolicyEvaluation.Violations...)
	cp.PolicyEvaluation.Warnings = append([]model.PolicyWarning{}, c.PolicyEvaluation.Warnings...)
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}

package service

import (
	"strings"

	"quotecraft/internal/compare/model"
)

type entry struct {
	item model.BOQItem
	desc string // normalized description
	unit string // canonical unit
}

// Index is the read-only view of one BOQ used by both matchers.
// Entries keep insertion order; ranking ties resolve to the earlier entry.
type Index struct {
	entries []entry
	bySku   map[string]int // sku -> first entry with that sku
}

func buildIndex(items []model.BOQItem) *Index {
	idx := &Index{
		entries: make([]entry, 0, len(items)),
		bySku:   make(map[string]int, len(items)),
	}
	for _, it := range items {
		if it.SKU != "" {
			if _, ok := idx.bySku[it.SKU]; !ok {
				idx.bySku[it.SKU] = len(idx.entries)
			}
		}
		idx.entries = append(idx.entries, entry{
			item: it,
			desc: normalize(it.Description),
			unit: normalizeUnit(it.Unit),
		})
	}
	return idx
}

// lookupSku is exact and case-sensitive. An empty sku means the line has
// no code, so it never matches.
func (idx *Index) lookupSku(sku string) (model.BOQItem, bool) {
	if sku == "" {
		return model.BOQItem{}, false
	}
	i, ok := idx.bySku[sku]
	if !ok {
		return model.BOQItem{}, false
	}
	return idx.entries[i].item, true
}

func (idx *Index) Len() int { return len(idx.entries) }

func label(it model.BOQItem) string {
	if n := strings.TrimSpace(it.ItemNumber); n != "" {
		return n + " — " + it.Description
	}
	return it.Description
}

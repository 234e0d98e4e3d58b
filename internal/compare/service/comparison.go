package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quotecraft/internal/compare/model"
	"quotecraft/internal/policy"
)

var ErrNoInput = errors.New("comparison: boq and quotes are both missing")

const (
	ActionComparisonCreated = "COMPARISON_CREATED"
	SystemUser              = "system"
)

// Options collects every tunable of the matching and scoring pipeline.
type Options struct {
	Match              MatchOptions
	Score              ScoreOptions
	OutlierVariancePct float64
}

func DefaultOptions() Options {
	return Options{
		Match:              DefaultMatchOptions(),
		Score:              DefaultScoreOptions(),
		OutlierVariancePct: 30,
	}
}

// Engine composes the matchers, the scorer and the policy engine.
// It holds no per-comparison state.
type Engine struct {
	opt     Options
	policy  *policy.Engine
	matcher *Matcher
	log     zerolog.Logger
	now     func() time.Time
	newID   func() string
}

func NewEngine(opt Options, pol *policy.Engine, logger zerolog.Logger) *Engine {
	return &Engine{
		opt:     opt,
		policy:  pol,
		matcher: NewMatcher(opt.Match),
		log:     logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return "comp-" + uuid.NewString() },
	}
}

func (e *Engine) Policy() *policy.Engine { return e.policy }

// MatchFuzzy runs the similarity matcher.
func (e *Engine) MatchFuzzy(boqItems []model.BOQItem, quoteItems []model.QuoteItem) []model.MatchResult {
	return e.matcher.Match(boqItems, quoteItems)
}

// Compare builds a fresh comparison snapshot. Every call gets a new id.
// Quotes without items, or a BOQ without items, are skipped and logged.
func (e *Engine) Compare(boq *model.BOQ, quotes []model.Quote) (*model.ComparisonResult, error) {
	if boq == nil && quotes == nil {
		return nil, ErrNoInput
	}

	var (
		boqID    string
		boqTotal float64
		idx      *Index
	)
	if boq != nil {
		boqID = boq.ID
		boqTotal = boq.TotalBOQ
		if boq.Items != nil {
			idx = buildIndex(boq.Items)
		}
	}
	if idx == nil {
		e.log.Warn().Str("boq_id", boqID).Msg("boq has no items, every quote is skipped")
	}

	type scored struct {
		score model.VendorScore
		match model.VendorMatch
	}
	ranked := make([]scored, 0, len(quotes))
	for _, q := range quotes {
		if q.Items == nil {
			e.log.Warn().Str("vendor_id", q.VendorID).Msg("quote has no items, skipping")
			continue
		}
		if idx == nil {
			continue
		}
		matches, unmatched := matchBySku(idx, q.Items, e.opt.OutlierVariancePct)
		ranked = append(ranked, scored{
			score: ScoreVendor(q, matches, unmatched, boqTotal, e.opt.Score),
			match: model.VendorMatch{VendorID: q.VendorID, Matches: matches, Unmatched: unmatched},
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score.Score > ranked[j].score.Score })

	scores := make([]model.VendorScore, 0, len(ranked))
	for _, r := range ranked {
		scores = append(scores, r.score)
	}

	res := &model.ComparisonResult{
		ID:         e.newID(),
		BOQID:      boqID,
		Quotes:     scores,
		Matches:    make([]model.VendorMatch, 0, len(ranked)),
		Status:     model.StatusPendingApproval,
		CreatedAt:  e.now(),
		Selections: []model.Selection{},
	}
	for _, r := range ranked {
		res.Matches = append(res.Matches, r.match)
	}

	var (
		bestCost, bestVariance float64
		bestUnmatched          int
	)
	if best, ok := res.Best(); ok {
		res.BestVendor = best.VendorName
		res.CostSavings = boqTotal - best.TotalCost
		bestCost, bestVariance, bestUnmatched = best.TotalCost, best.Variance, best.UnmatchedCount
	}

	res.PolicyEvaluation = e.policy.EvaluatePolicies(bestCost, len(scores), bestUnmatched, bestVariance)
	if res.BestVendor != "" && e.policy.HasPreferredVendors() && !e.policy.IsPreferredVendor(res.BestVendor) {
		res.PolicyEvaluation.Warnings = append(res.PolicyEvaluation.Warnings, model.PolicyWarning{
			Message:  fmt.Sprintf("%s is not a preferred vendor", res.BestVendor),
			Severity: model.SeverityLow,
		})
	}
	res.ApprovalRoute = e.policy.DetermineApprovalRoute(bestCost, !res.PolicyEvaluation.PolicyChecksPassed)

	res.AuditLog = []model.AuditLogEntry{{
		Timestamp: res.CreatedAt,
		Action:    ActionComparisonCreated,
		Details:   fmt.Sprintf("Comparison created with %d vendor quotes (%d scored)", len(quotes), len(scores)),
		UserID:    SystemUser,
		Status:    "SUCCESS",
	}}

	e.log.Debug().
		Str("comparison_id", res.ID).
		Int("quotes", len(quotes)).
		Int("scored", len(scores)).
		Str("best_vendor", res.BestVendor).
		Str("route", string(res.ApprovalRoute)).
		Msg("comparison computed")
	return res, nil
}

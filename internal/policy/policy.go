package policy

import (
	"fmt"
	"strings"

	"quotecraft/internal/compare/model"
)

// Thresholds are the tunable limits behind every rule and approval tier.
type Thresholds struct {
	ThreeQuoteCost          float64 // totals above this need MinQuotes quotes
	MinQuotes               int
	PriceWarningVariancePct float64 // |variance| above this raises a warning
	ManagerLimit            float64 // up to this a procurement manager approves
	DirectorLimit           float64 // up to this a finance director approves
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		ThreeQuoteCost:          10000,
		MinQuotes:               3,
		PriceWarningVariancePct: 50,
		ManagerLimit:            50000,
		DirectorLimit:           500000,
	}
}

const (
	PolicyThreeQuote     = "threeQuoteRule"
	PolicySpecCompliance = "specCompliance"

	ActionEscalate      = "ESCALATE_TO_PROCUREMENT"
	ActionFlagForReview = "FLAG_FOR_REVIEW"
)

// Input is what the rules look at.
type Input struct {
	TotalCost      float64
	QuoteCount     int
	UnmatchedCount int
	CostVariance   float64
}

// rule returns at most one violation and any number of warnings.
type rule func(th Thresholds, in Input) (*model.PolicyViolation, []model.PolicyWarning)

// Engine evaluates business rules against a scored comparison.
type Engine struct {
	th        Thresholds
	preferred []string
	rules     []rule
}

func New(th Thresholds, preferredVendors []string) *Engine {
	pv := make([]string, 0, len(preferredVendors))
	for _, v := range preferredVendors {
		if v = strings.TrimSpace(v); v != "" {
			pv = append(pv, strings.ToLower(v))
		}
	}
	return &Engine{
		th:        th,
		preferred: pv,
		rules:     []rule{threeQuoteRule, specComplianceRule, priceVarianceRule},
	}
}

func (e *Engine) Thresholds() Thresholds { return e.th }

// EvaluatePolicies runs every rule. Rules are independent, so their order
// only affects the order of the reported entries.
func (e *Engine) EvaluatePolicies(totalCost float64, quoteCount, unmatchedItemsCount int, costVariance float64) model.PolicyEvaluation {
	in := Input{
		TotalCost:      totalCost,
		QuoteCount:     quoteCount,
		UnmatchedCount: unmatchedItemsCount,
		CostVariance:   costVariance,
	}
	ev := model.PolicyEvaluation{
		Violations: []model.PolicyViolation{},
		Warnings:   []model.PolicyWarning{},
	}
	for _, r := range e.rules {
		v, w := r(e.th, in)
		if v != nil {
			ev.Violations = append(ev.Violations, *v)
		}
		ev.Warnings = append(ev.Warnings, w...)
	}
	ev.PolicyChecksPassed = len(ev.Violations) == 0
	return ev
}

// DetermineApprovalRoute picks the approver tier. Any violation routes to the
// procurement manager regardless of cost.
func (e *Engine) DetermineApprovalRoute(totalCost float64, hasViolations bool) model.ApprovalRoute {
	if hasViolations {
		return model.RouteProcurementManager
	}
	switch {
	case totalCost <= e.th.ManagerLimit:
		return model.RouteProcurementManager
	case totalCost <= e.th.DirectorLimit:
		return model.RouteFinanceDirector
	default:
		return model.RouteExecutive
	}
}

// IsPreferredVendor reports whether name contains one of the preferred vendor names.
func (e *Engine) IsPreferredVendor(name string) bool {
	n := strings.ToLower(name)
	for _, pv := range e.preferred {
		if strings.Contains(n, pv) {
			return true
		}
	}
	return false
}

// HasPreferredVendors is false when no preferred list is configured.
func (e *Engine) HasPreferredVendors() bool { return len(e.preferred) > 0 }

func threeQuoteRule(th Thresholds, in Input) (*model.PolicyViolation, []model.PolicyWarning) {
	if in.TotalCost > th.ThreeQuoteCost && in.QuoteCount < th.MinQuotes {
		return &model.PolicyViolation{
			Policy:   PolicyThreeQuote,
			Message:  fmt.Sprintf("Total cost > $%s requires %d+ quotes", shortAmount(th.ThreeQuoteCost), th.MinQuotes),
			Severity: model.SeverityHigh,
			Action:   ActionEscalate,
		}, nil
	}
	return nil, nil
}

func specComplianceRule(_ Thresholds, in Input) (*model.PolicyViolation, []model.PolicyWarning) {
	if in.UnmatchedCount > 0 {
		return &model.PolicyViolation{
			Policy:   PolicySpecCompliance,
			Message:  fmt.Sprintf("%d items not in BOQ", in.UnmatchedCount),
			Severity: model.SeverityMedium,
			Action:   ActionFlagForReview,
		}, nil
	}
	return nil, nil
}

func priceVarianceRule(th Thresholds, in Input) (*model.PolicyViolation, []model.PolicyWarning) {
	switch {
	case in.CostVariance < -th.PriceWarningVariancePct:
		return nil, []model.PolicyWarning{{
			Message:  "Unusually low price; verify vendor capacity",
			Severity: model.SeverityMedium,
		}}
	case in.CostVariance > th.PriceWarningVariancePct:
		return nil, []model.PolicyWarning{{
			Message:  "Unusually high price; consider renegotiation",
			Severity: model.SeverityMedium,
		}}
	}
	return nil, nil
}

// 10000 -> "10k", 2500 -> "2500"
func shortAmount(v float64) string {
	if v >= 1000 && v == float64(int64(v/1000))*1000 {
		return fmt.Sprintf("%dk", int64(v/1000))
	}
	return fmt.Sprintf("%g", v)
}

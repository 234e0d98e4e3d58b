package service

import (
	"errors"

	"quotecraft/internal/compare/model"
)

var (
	ErrSelectionMissingItem = errors.New("selection: boqItemId is required")
	ErrSelectionNegative    = errors.New("selection: finalRate must not be negative")
)

// DefaultSelections picks the lowest quoted rate for every matched BOQ item.
// Output follows BOQ order; items nobody quoted get no selection.
func DefaultSelections(boqItems []model.BOQItem, results []model.MatchResult) []model.Selection {
	best := make(map[string]model.Selection)
	for _, r := range results {
		if r.MatchedBOQID == nil {
			continue
		}
		id := *r.MatchedBOQID
		cur, ok := best[id]
		if !ok || r.Quote.UnitPrice < cur.FinalRate {
			best[id] = model.Selection{
				BOQItemID:      id,
				SelectedVendor: r.Quote.Vendor,
				FinalRate:      r.Quote.UnitPrice,
			}
		}
	}

	out := make([]model.Selection, 0, len(best))
	for _, it := range boqItems {
		if s, ok := best[it.ID]; ok {
			out = append(out, s)
			delete(best, it.ID)
		}
	}
	return out
}

// UpsertSelection keeps at most one selection per BOQ item.
func UpsertSelection(current []model.Selection, s model.Selection) ([]model.Selection, error) {
	if s.BOQItemID == "" {
		return current, ErrSelectionMissingItem
	}
	if s.FinalRate < 0 {
		return current, ErrSelectionNegative
	}
	out := make([]model.Selection, 0, len(current)+1)
	replaced := false
	for _, c := range current {
		if c.BOQItemID == s.BOQItemID {
			out = append(out, s)
			replaced = true
			continue
		}
		out = append(out, c)
	}
	if !replaced {
		out = append(out, s)
	}
	return out, nil
}

// SeedSelections runs the fuzzy matcher over every quote and returns the
// default selections. Quote lines without a vendor take the quote's vendor name.
func (e *Engine) SeedSelections(boq *model.BOQ, quotes []model.Quote) []model.Selection {
	if boq == nil || len(boq.Items) == 0 {
		return []model.Selection{}
	}
	var results []model.MatchResult
	for _, q := range quotes {
		items := make([]model.QuoteItem, len(q.Items))
		for i, it := range q.Items {
			if it.Vendor == "" {
				it.Vendor = q.VendorName
			}
			items[i] = it
		}
		results = append(results, e.matcher.Match(boq.Items, items)...)
	}
	return DefaultSelections(boq.Items, results)
}

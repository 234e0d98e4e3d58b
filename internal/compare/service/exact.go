package service

import (
	"fmt"
	"math"

	"quotecraft/internal/compare/model"
)

const ReasonSkuNotInBOQ = "SKU not in BOQ"

// MatchBySku partitions quote items into matches and unmatched by exact SKU.
// Every quote item lands in exactly one list; both keep input order.
func MatchBySku(boqItems []model.BOQItem, quoteItems []model.QuoteItem, outlierPct float64) ([]model.MatchedItem, []model.UnmatchedItem) {
	return matchBySku(buildIndex(boqItems), quoteItems, outlierPct)
}

func matchBySku(idx *Index, quoteItems []model.QuoteItem, outlierPct float64) ([]model.MatchedItem, []model.UnmatchedItem) {
	matches := make([]model.MatchedItem, 0, len(quoteItems))
	unmatched := make([]model.UnmatchedItem, 0)

	for _, q := range quoteItems {
		b, ok := idx.lookupSku(q.SKU)
		if !ok {
			unmatched = append(unmatched, model.UnmatchedItem{
				SKU:        q.SKU,
				Qty:        q.Qty,
				QuotePrice: q.UnitPrice,
				Matched:    false,
				Reason:     ReasonSkuNotInBOQ,
			})
			continue
		}

		v := Variance(b.EstimatedPrice, q.UnitPrice)
		mi := model.MatchedItem{
			BOQLineNo:   b.LineNo,
			SKU:         q.SKU,
			Description: b.Description,
			BOQQty:      b.Quantity,
			BOQPrice:    b.EstimatedPrice,
			QuoteQty:    q.Qty,
			QuotePrice:  q.UnitPrice,
			Variance:    v,
			Matched:     true,
			IsOutlier:   math.Abs(v) > outlierPct,
		}
		if mi.IsOutlier {
			mi.OutlierReason = fmt.Sprintf("Price variance %.2f%% exceeds %g%% threshold", v, outlierPct)
		}
		matches = append(matches, mi)
	}
	return matches, unmatched
}

// Variance is the percentage difference of actual against baseline.
// A zero baseline yields 0.
func Variance(baseline, actual float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (actual - baseline) / baseline * 100
}

package service

import (
	"math"

	"quotecraft/internal/compare/model"
)

type ComplianceMode string

const (
	// ComplianceBinary gives full marks with no unmatched items, the penalized value otherwise.
	ComplianceBinary ComplianceMode = "binary"
	// ComplianceProportional scales with the share of matched items.
	ComplianceProportional ComplianceMode = "proportional"
)

type ScoreOptions struct {
	ComplianceFull      float64
	CompliancePenalized float64
	Mode                ComplianceMode
	DefaultDeliveryDays int
}

func DefaultScoreOptions() ScoreOptions {
	return ScoreOptions{
		ComplianceFull:      100,
		CompliancePenalized: 80,
		Mode:                ComplianceBinary,
		DefaultDeliveryDays: 14,
	}
}

// ScoreVendor turns one vendor's exact-key partition into a VendorScore.
// The score is not clamped: it may exceed 100 or go negative.
func ScoreVendor(q model.Quote, matches []model.MatchedItem, unmatched []model.UnmatchedItem, boqTotal float64, opt ScoreOptions) model.VendorScore {
	variance := Variance(boqTotal, q.TotalCost)
	compliance := complianceScore(len(matches), len(unmatched), opt)
	score := 100 - math.Abs(variance)*0.5 + compliance*0.2

	delivery := opt.DefaultDeliveryDays
	if len(q.Items) > 0 && q.Items[0].LeadTime > 0 {
		delivery = q.Items[0].LeadTime
	}

	outliers := 0
	for _, m := range matches {
		if m.IsOutlier {
			outliers++
		}
	}

	return model.VendorScore{
		VendorID:        q.VendorID,
		VendorName:      q.VendorName,
		TotalCost:       q.TotalCost,
		Variance:        variance,
		ComplianceScore: compliance,
		DeliveryDays:    delivery,
		Score:           score,
		Recommendation:  Recommend(score),
		MatchedCount:    len(matches),
		UnmatchedCount:  len(unmatched),
		OutlierCount:    outliers,
	}
}

func complianceScore(matched, unmatched int, opt ScoreOptions) float64 {
	if unmatched == 0 {
		return opt.ComplianceFull
	}
	if opt.Mode == ComplianceProportional {
		ratio := float64(unmatched) / float64(matched+unmatched)
		return opt.ComplianceFull - ratio*opt.ComplianceFull
	}
	return opt.CompliancePenalized
}

// Recommend maps a score onto RECOMMENDED (>85), ACCEPTABLE (>70) or FLAG_REVIEW.
func Recommend(score float64) model.Recommendation {
	switch {
	case score > 85:
		return model.Recommended
	case score > 70:
		return model.Acceptable
	default:
		return model.FlagReview
	}
}

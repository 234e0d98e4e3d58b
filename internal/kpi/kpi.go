// Package kpi tracks processing counters for the dashboard.
package kpi

import (
	"fmt"
	"math"
	"sync"
	"time"

	"quotecraft/internal/compare/model"
)

// Event is one processed unit of work.
type Event struct {
	ProcessingTime time.Duration
	AutoApproved   bool
	Escalated      bool
	CostSavings    float64
	Error          bool
}

// Tracker accumulates events. The zero value is not usable; use New.
type Tracker struct {
	mu                  sync.Mutex
	totalProcessed      int
	totalProcessingTime time.Duration
	autoApproved        int
	escalated           int
	totalCostSavings    float64
	errors              int
	started             time.Time
}

func New() *Tracker {
	return &Tracker{started: time.Now()}
}

func (t *Tracker) Record(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalProcessed++
	if e.ProcessingTime > 0 {
		t.totalProcessingTime += e.ProcessingTime
	}
	if e.AutoApproved {
		t.autoApproved++
	}
	if e.Escalated {
		t.escalated++
	}
	if e.CostSavings > 0 {
		t.totalCostSavings += e.CostSavings
	}
	if e.Error {
		t.errors++
	}
}

// Snapshot derives the dashboard metrics.
func (t *Tracker) Snapshot() model.KPIMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := model.KPIMetrics{
		TotalProcessed:    t.totalProcessed,
		AvgProcessingTime: "0 seconds",
		AutoApprovedCount: t.autoApproved,
		EscalatedCount:    t.escalated,
		TotalCostSavings:  t.totalCostSavings,
	}
	if t.totalProcessed == 0 {
		return out
	}
	n := float64(t.totalProcessed)
	if avg := t.totalProcessingTime.Seconds() / n; avg > 0 {
		out.AvgProcessingTime = fmt.Sprintf("%.1f seconds", avg)
	}
	out.STPRate = round(float64(t.autoApproved)/n*100, 1)
	out.ErrorRate = round(float64(t.errors)/n*100, 2)
	// savings per processed item, in thousands, as a percentage
	out.AvgCostVariance = round(t.totalCostSavings/n/1000*100, 2)
	return out
}

func (t *Tracker) Uptime() time.Duration { return time.Since(t.started) }

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

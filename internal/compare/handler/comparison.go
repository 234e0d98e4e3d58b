package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"quotecraft/internal/compare/model"
	"quotecraft/internal/compare/service"
	"quotecraft/internal/kpi"
)

type compareRequest struct {
	BOQ    *model.BOQ    `json:"boq"`
	Quotes []model.Quote `json:"quotes"`
}

// CreateComparison runs the orchestrator and stores the snapshot.
func (h *Handler) CreateComparison(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	log := zerolog.Ctx(r.Context())

	var req compareRequest
	if err := decodeJSON(r, &req); err != nil {
		h.kpi.Record(kpi.Event{ProcessingTime: time.Since(start), Error: true})
		writeError(w, r, err)
		return
	}

	res, err := h.engine.Compare(req.BOQ, req.Quotes)
	if err != nil {
		h.kpi.Record(kpi.Event{ProcessingTime: time.Since(start), Error: true})
		writeError(w, r, err)
		return
	}
	res.Selections = h.engine.SeedSelections(req.BOQ, req.Quotes)

	if err := h.store.Save(res); err != nil {
		h.kpi.Record(kpi.Event{ProcessingTime: time.Since(start), Error: true})
		writeError(w, r, err)
		return
	}

	passed := res.PolicyEvaluation.PolicyChecksPassed
	h.kpi.Record(kpi.Event{
		ProcessingTime: time.Since(start),
		AutoApproved:   passed,
		Escalated:      !passed,
		CostSavings:    res.CostSavings,
	})

	if err := h.notifier.ComparisonCreated(r.Context(), res); err != nil {
		log.Warn().Err(err).Str("comparison_id", res.ID).Msg("comparison notification failed")
	}
	h.runFlow(r.Context(), res)

	log.Info().
		Str("comparison_id", res.ID).
		Int("vendors", len(res.Quotes)).
		Str("best_vendor", res.BestVendor).
		Str("route", string(res.ApprovalRoute)).
		Dur("elapsed", time.Since(start)).
		Msg("comparison created")
	writeOK(w, http.StatusCreated, res, "Comparison completed")
}

func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, c, "")
}

func (h *Handler) ListComparisons(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, h.store.List(), "")
}

type selectionsRequest struct {
	Selections []model.Selection `json:"selections"`
}

// PutSelections upserts selections on a comparison that is still pending.
func (h *Handler) PutSelections(w http.ResponseWriter, r *http.Request) {
	var req selectionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.Selections) == 0 {
		writeError(w, r, badRequest("selections are required"))
		return
	}
	for _, s := range req.Selections {
		if _, err := service.UpsertSelection(nil, s); err != nil {
			writeError(w, r, err)
			return
		}
	}

	id := chi.URLParam(r, "id")
	now := h.now().UTC()
	c, err := h.store.Update(id, func(c *model.ComparisonResult) error {
		if c.Status != model.StatusPendingApproval {
			return errNotPending(c.Status)
		}
		for _, s := range req.Selections {
			c.Selections, _ = service.UpsertSelection(c.Selections, s)
		}
		c.UpdatedAt = &now
		c.AuditLog = append(c.AuditLog, model.AuditLogEntry{
			Timestamp: now,
			Action:    "SELECTIONS_UPDATED",
			Details:   pluralItems(len(req.Selections)),
			UserID:    service.SystemUser,
			Status:    "SUCCESS",
		})
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, c, "Selections updated")
}

type matchRequest struct {
	BOQItems   []model.BOQItem   `json:"boqItems"`
	QuoteItems []model.QuoteItem `json:"quoteItems"`
}

type matchResponse struct {
	Results    []model.MatchResult `json:"results"`
	Selections []model.Selection   `json:"selections"`
}

// Match runs the fuzzy matcher on ad-hoc items.
func (h *Handler) Match(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	results := h.engine.MatchFuzzy(req.BOQItems, req.QuoteItems)
	writeOK(w, http.StatusOK, matchResponse{
		Results:    results,
		Selections: service.DefaultSelections(req.BOQItems, results),
	}, "")
}

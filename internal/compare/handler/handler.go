// Package handler exposes the comparison workflow over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"quotecraft/internal/approval"
	"quotecraft/internal/compare/model"
	"quotecraft/internal/compare/service"
	"quotecraft/internal/compare/store"
	"quotecraft/internal/erp"
	"quotecraft/internal/flow"
	"quotecraft/internal/kpi"
	"quotecraft/internal/notify"
)

// FlowRunner is the part of flow.Client the handlers use.
type FlowRunner interface {
	Enabled() bool
	Trigger(ctx context.Context, skill string, input any) (*flow.Execution, error)
	WaitForCompletion(ctx context.Context, executionID string, maxWait time.Duration) (*flow.Execution, error)
}

type Deps struct {
	Engine    *service.Engine
	Store     store.Store
	Approvals *approval.Service
	ERP       erp.PurchaseOrders
	KPI       *kpi.Tracker
	Notifier  notify.Notifier
	Flow      FlowRunner // optional
	Logger    zerolog.Logger
}

type Handler struct {
	engine    *service.Engine
	store     store.Store
	approvals *approval.Service
	erp       erp.PurchaseOrders
	kpi       *kpi.Tracker
	notifier  notify.Notifier
	flow      FlowRunner
	log       zerolog.Logger
	now       func() time.Time

	// background flow runs; tests wait on it
	flowDone func()
}

func New(d Deps) *Handler {
	n := d.Notifier
	if n == nil {
		n = notify.Nop{}
	}
	k := d.KPI
	if k == nil {
		k = kpi.New()
	}
	return &Handler{
		engine:    d.Engine,
		store:     d.Store,
		approvals: d.Approvals,
		erp:       d.ERP,
		kpi:       k,
		notifier:  n,
		flow:      d.Flow,
		log:       d.Logger,
		now:       time.Now,
		flowDone:  func() {},
	}
}

// Routes mounts every API endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/upload", h.Upload)
	r.Post("/match", h.Match)

	r.Route("/comparison", func(r chi.Router) {
		r.Get("/", h.ListComparisons)
		r.Post("/", h.CreateComparison)
		r.Get("/{id}", h.GetComparison)
		r.Put("/{id}/selections", h.PutSelections)
	})

	r.Post("/approval", h.SubmitApproval)
	r.Get("/kpi", h.KPI)

	r.Route("/erp", func(r chi.Router) {
		r.Get("/create-po", h.CreatePO)
		r.Post("/create-po", h.CreatePO)
		r.Get("/po-status/{poNumber}", h.POStatus)
	})
}

// runFlow hands a stored comparison to the external workflow agent. It runs
// detached from the request and records the outcome in the audit log.
func (h *Handler) runFlow(ctx context.Context, c *model.ComparisonResult) {
	if h.flow == nil || !h.flow.Enabled() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer h.flowDone()
		log := h.log.With().Str("comparison_id", c.ID).Logger()

		ex, err := h.flow.Trigger(ctx, flow.SkillComparison, map[string]any{
			"comparisonId":  c.ID,
			"boqId":         c.BOQID,
			"bestVendor":    c.BestVendor,
			"approvalRoute": c.ApprovalRoute,
		})
		if err != nil {
			log.Warn().Err(err).Msg("flow trigger failed")
			return
		}
		done, err := h.flow.WaitForCompletion(ctx, ex.ID, 0)
		if err != nil {
			log.Warn().Err(err).Msg("flow wait failed")
			return
		}

		status := "SUCCESS"
		if done.Status != flow.StatusCompleted {
			status = done.Status
		}
		_, err = h.store.Update(c.ID, func(cur *model.ComparisonResult) error {
			cur.AuditLog = append(cur.AuditLog, model.AuditLogEntry{
				Timestamp: h.now().UTC(),
				Action:    "FLOW_" + done.Status,
				Details:   flow.SkillComparison + " " + done.ID,
				UserID:    service.SystemUser,
				Status:    status,
			})
			return nil
		})
		if err != nil {
			log.Warn().Err(err).Msg("flow audit")
		}
		log.Info().Str("status", done.Status).Msg("flow finished")
	}()
}

func (h *Handler) KPI(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, h.kpi.Snapshot(), "")
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"quotecraft/internal/approval"
	"quotecraft/internal/compare/model"
	"quotecraft/internal/erp"
)

func errNotPending(s model.Status) error {
	return fmt.Errorf("%w: status is %s", approval.ErrNotPending, s)
}

func pluralItems(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}

func (h *Handler) SubmitApproval(w http.ResponseWriter, r *http.Request) {
	var req approval.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.approvals.Submit(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, a, a.Message)
}

// CreatePO accepts comparisonId from the query string or a JSON body.
func (h *Handler) CreatePO(w http.ResponseWriter, r *http.Request) {
	req := erp.PORequest{ComparisonID: strings.TrimSpace(r.URL.Query().Get("comparisonId"))}
	if req.ComparisonID == "" && r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if req.ComparisonID == "" {
		writeError(w, r, badRequest("comparisonId is required"))
		return
	}
	po, err := h.erp.CreatePurchaseOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, po, "Purchase order created")
}

func (h *Handler) POStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.erp.Status(r.Context(), chi.URLParam(r, "poNumber"))
	if err != nil {
		if !errors.Is(err, erp.ErrPONotFound) {
			h.log.Error().Err(err).Msg("po status")
		}
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, st, "")
}

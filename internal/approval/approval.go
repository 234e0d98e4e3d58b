// Package approval records human decisions on comparisons and triggers
// purchase-order creation for approved ones.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quotecraft/internal/compare/model"
	"quotecraft/internal/compare/store"
	"quotecraft/internal/erp"
	"quotecraft/internal/notify"
)

var (
	ErrMissingComparisonID = errors.New("comparisonId is required")
	ErrInvalidDecision     = errors.New("decision must be APPROVED or REJECTED")
	ErrNotPending          = errors.New("comparison is not pending approval")
)

const (
	ActionApproved = "APPROVED"
	ActionRejected = "REJECTED"
)

// Request is the validated body of an approval submission.
type Request struct {
	ComparisonID  string         `json:"comparisonId"`
	Decision      model.Decision `json:"decision"`
	ApproverRole  string         `json:"approverRole"`
	ApproverEmail string         `json:"approverEmail"`
	Comment       string         `json:"comment"`
}

// Validate runs before anything touches the store.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ComparisonID) == "" {
		return ErrMissingComparisonID
	}
	switch r.Decision {
	case model.DecisionApproved, model.DecisionRejected:
		return nil
	default:
		return ErrInvalidDecision
	}
}

type Service struct {
	store    store.Store
	erp      erp.PurchaseOrders
	notifier notify.Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(st store.Store, po erp.PurchaseOrders, n notify.Notifier, logger zerolog.Logger) *Service {
	if n == nil {
		n = notify.Nop{}
	}
	return &Service{
		store:    st,
		erp:      po,
		notifier: n,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit applies a decision. Only a pending comparison can be decided.
// An approval creates a purchase order; a failed notification is logged
// and does not affect the returned approval.
func (s *Service) Submit(ctx context.Context, req Request) (*model.Approval, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	next := model.StatusRejected
	action := ActionRejected
	if req.Decision == model.DecisionApproved {
		next = model.StatusApproved
		action = ActionApproved
	}

	_, err := s.store.Update(req.ComparisonID, func(c *model.ComparisonResult) error {
		if c.Status != model.StatusPendingApproval {
			return fmt.Errorf("%w: status is %s", ErrNotPending, c.Status)
		}
		c.Status = next
		c.UpdatedAt = &now
		c.AuditLog = append(c.AuditLog, model.AuditLogEntry{
			Timestamp: now,
			Action:    action,
			Details:   auditDetails(req),
			UserID:    req.ApproverEmail,
			Status:    "SUCCESS",
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	id := "approval-" + uuid.NewString()
	out := &model.Approval{
		ID:           id,
		ComparisonID: req.ComparisonID,
		Decision:     req.Decision,
		ApproverRole: req.ApproverRole,
		Approver:     req.ApproverEmail,
		Comment:      req.Comment,
		Timestamp:    now,
		NextStep:     "Comparison rejected; no PO created",
		Message:      "Comparison rejected",
	}

	if req.Decision == model.DecisionApproved {
		po, err := s.erp.CreatePurchaseOrder(ctx, erp.PORequest{
			ComparisonID:  req.ComparisonID,
			ApproverEmail: req.ApproverEmail,
		})
		if err != nil {
			s.log.Error().Err(err).Str("comparison_id", req.ComparisonID).Msg("purchase order creation failed")
			out.NextStep = "PO creation pending"
			out.Message = "Approval recorded, PO creation failed"
		} else {
			out.PODetails = po
			out.NextStep = "PO Created: " + po.PONumber
			out.Message = "Approval successful, PO created"
			s.recordPO(req.ComparisonID, po)
		}
	}

	if err := s.notifier.ApprovalDecided(ctx, out); err != nil {
		s.log.Warn().Err(err).Str("approval_id", id).Msg("failed to send approval notification")
	}

	s.log.Info().Str("approval_id", id).Str("decision", string(req.Decision)).Msg("approval submitted")
	return out, nil
}

func (s *Service) recordPO(comparisonID string, po *model.PurchaseOrder) {
	_, err := s.store.Update(comparisonID, func(c *model.ComparisonResult) error {
		c.AuditLog = append(c.AuditLog, model.AuditLogEntry{
			Timestamp: po.CreatedAt,
			Action:    "PO_CREATED",
			Details:   po.PONumber,
			UserID:    "erp",
			Status:    "SUCCESS",
		})
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("comparison_id", comparisonID).Msg("audit PO creation")
	}
}

func auditDetails(req Request) string {
	d := fmt.Sprintf("%s by %s", req.Decision, nonEmpty(req.ApproverRole, "unknown role"))
	if c := strings.TrimSpace(req.Comment); c != "" {
		d += ": " + c
	}
	return d
}

func nonEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

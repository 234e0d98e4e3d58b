// Package erp is a stand-in ERP that issues purchase orders in memory.
package erp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quotecraft/internal/compare/model"
)

var ErrPONotFound = errors.New("purchase order not found")

const (
	POStatusCreated   = "CREATED"
	POStatusConfirmed = "CONFIRMED"
	deliveryLeadTime  = 14 * 24 * time.Hour
)

type PORequest struct {
	ComparisonID  string `json:"comparisonId"`
	ApproverEmail string `json:"approverEmail,omitempty"`
}

type POStatus struct {
	PONumber           string    `json:"poNumber"`
	Status             string    `json:"status"`
	ConfirmedAt        time.Time `json:"confirmedAt"`
	EstimatedDelivery  time.Time `json:"estimatedDelivery"`
	VendorAcknowledged bool      `json:"vendorAcknowledged"`
}

// PurchaseOrders creates and looks up purchase orders.
type PurchaseOrders interface {
	CreatePurchaseOrder(ctx context.Context, req PORequest) (*model.PurchaseOrder, error)
	Status(ctx context.Context, poNumber string) (*POStatus, error)
}

type Mock struct {
	prefix string
	log    zerolog.Logger
	now    func() time.Time

	mu  sync.RWMutex
	pos map[string]model.PurchaseOrder
}

func NewMock(prefix string, logger zerolog.Logger) *Mock {
	if prefix == "" {
		prefix = "TEST"
	}
	return &Mock{
		prefix: prefix,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
		pos:    make(map[string]model.PurchaseOrder),
	}
}

func (m *Mock) CreatePurchaseOrder(ctx context.Context, req PORequest) (*model.PurchaseOrder, error) {
	if req.ComparisonID == "" {
		return nil, errors.New("erp: comparisonId is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()
	number := fmt.Sprintf("PO-%s-%d", m.prefix, now.UnixMilli())
	for n := 1; ; n++ {
		if _, taken := m.pos[number]; !taken {
			break
		}
		number = fmt.Sprintf("PO-%s-%d-%d", m.prefix, now.UnixMilli(), n)
	}
	po := model.PurchaseOrder{
		Success:                true,
		PONumber:               number,
		POID:                   "po-" + uuid.NewString(),
		ComparisonID:           req.ComparisonID,
		Status:                 POStatusCreated,
		CreatedAt:              now,
		VendorNotificationSent: true,
	}
	m.pos[number] = po
	m.log.Info().Str("po_number", number).Str("comparison_id", req.ComparisonID).Msg("mock PO created")
	return &po, nil
}

func (m *Mock) Status(_ context.Context, poNumber string) (*POStatus, error) {
	m.mu.RLock()
	po, ok := m.pos[poNumber]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrPONotFound
	}
	now := m.now()
	return &POStatus{
		PONumber:           po.PONumber,
		Status:             POStatusConfirmed,
		ConfirmedAt:        now,
		EstimatedDelivery:  now.Add(deliveryLeadTime),
		VendorAcknowledged: true,
	}, nil
}

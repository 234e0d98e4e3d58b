package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"

	"quotecraft/internal/compare/model"
)

const (
	SubjectComparisonCreated = "comparison.created"
	SubjectApprovalDecided   = "approval.decided"
)

// publisher is the part of *nats.Conn the events need.
type publisher interface {
	PublishMsg(m *nats.Msg) error
}

// Events publishes JSON events on "<prefix>.<subject>".
type Events struct {
	conn   publisher
	prefix string
}

func NewEvents(conn *nats.Conn, prefix string) *Events {
	return &Events{conn: conn, prefix: prefix}
}

// ComparisonEvent is the summary published for a new comparison.
type ComparisonEvent struct {
	ComparisonID       string              `json:"comparisonId"`
	BOQID              string              `json:"boqId"`
	BestVendor         string              `json:"bestVendor"`
	CostSavings        float64             `json:"costSavings"`
	ApprovalRoute      model.ApprovalRoute `json:"approvalRoute"`
	PolicyChecksPassed bool                `json:"policyChecksPassed"`
	Status             model.Status        `json:"status"`
}

func (e *Events) ComparisonCreated(ctx context.Context, c *model.ComparisonResult) error {
	return e.publish(ctx, SubjectComparisonCreated, c.ID, ComparisonEvent{
		ComparisonID:       c.ID,
		BOQID:              c.BOQID,
		BestVendor:         c.BestVendor,
		CostSavings:        c.CostSavings,
		ApprovalRoute:      c.ApprovalRoute,
		PolicyChecksPassed: c.PolicyEvaluation.PolicyChecksPassed,
		Status:             c.Status,
	})
}

func (e *Events) ApprovalDecided(ctx context.Context, a *model.Approval) error {
	return e.publish(ctx, SubjectApprovalDecided, a.ComparisonID, a)
}

// publish carries the trace context of ctx in the message headers.
func (e *Events) publish(ctx context.Context, subject, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("nats: encode %s: %w", subject, err)
	}
	msg := &nats.Msg{Subject: e.subject(subject), Data: data, Header: nats.Header{}}
	msg.Header.Set("Comparison-Id", key)
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier(msg.Header))
	if err := e.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats: publish %s: %w", msg.Subject, err)
	}
	return nil
}

func (e *Events) subject(s string) string {
	if e.prefix == "" {
		return s
	}
	return e.prefix + "." + s
}

// headerCarrier lets the OTel propagator read and write NATS headers.
type headerCarrier nats.Header

func (c headerCarrier) Get(key string) string { return nats.Header(c).Get(key) }

func (c headerCarrier) Set(key, val string) { nats.Header(c).Set(key, val) }

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

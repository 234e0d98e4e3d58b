package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"quotecraft/internal/compare/model"
)

// Slack posts Block Kit messages to an incoming webhook.
type Slack struct {
	webhookURL string
	approver   string
	client     *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
	now        func() time.Time
}

func NewSlack(webhookURL, approverEmail string, logger zerolog.Logger) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		approver:   approverEmail,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		// Slack allows roughly one message per second per webhook
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		log:     logger,
		now:     time.Now,
	}
}

type block map[string]any

type slackMessage struct {
	Text   string  `json:"text"`
	Blocks []block `json:"blocks"`
}

func (s *Slack) ComparisonCreated(ctx context.Context, c *model.ComparisonResult) error {
	return s.post(ctx, c.ID, approvalRequestMessage(c, s.now()))
}

func (s *Slack) ApprovalDecided(ctx context.Context, a *model.Approval) error {
	if a.Decision != model.DecisionApproved || a.PODetails == nil {
		return nil
	}
	approver := a.Approver
	if approver == "" {
		approver = s.approver
	}
	return s.post(ctx, a.ComparisonID, poApprovedMessage(a, approver, s.now()))
}

func (s *Slack) post(ctx context.Context, id string, msg slackMessage) error {
	if s.webhookURL == "" {
		s.log.Warn().Str("comparison_id", id).Msg("slack webhook URL not configured, skipping notification")
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack: unexpected status %d", resp.StatusCode)
	}
	s.log.Info().Str("comparison_id", id).Msg("slack notification sent")
	return nil
}

func mrkdwn(text string) block { return block{"type": "mrkdwn", "text": text} }

func approvalRequestMessage(c *model.ComparisonResult, now time.Time) slackMessage {
	total := "N/A"
	if best, ok := c.Best(); ok {
		total = fmt.Sprintf("$%.2f", best.TotalCost)
	}
	vendor := c.BestVendor
	if vendor == "" {
		vendor = "TBD"
	}
	return slackMessage{
		Text: "New Purchase Approval Required",
		Blocks: []block{
			{"type": "header", "text": block{"type": "plain_text", "text": "Purchase Approval Request"}},
			{"type": "section", "fields": []block{
				mrkdwn("*Comparison ID:*\n" + c.ID),
				mrkdwn("*Total Cost:*\n" + total),
				mrkdwn("*Best Vendor:*\n" + vendor),
				mrkdwn(fmt.Sprintf("*Cost Savings:*\n$%.2f", c.CostSavings)),
			}},
			{"type": "section", "text": mrkdwn(fmt.Sprintf("*Status:* Pending Approval\n*Approval Route:* %s", c.ApprovalRoute))},
			{"type": "actions", "elements": []block{
				{"type": "button", "text": block{"type": "plain_text", "text": "Approve"}, "value": c.ID, "action_id": "approve_button", "style": "primary"},
				{"type": "button", "text": block{"type": "plain_text", "text": "Reject"}, "value": c.ID, "action_id": "reject_button", "style": "danger"},
			}},
			{"type": "context", "elements": []block{mrkdwn("Sent by QuoteCraft | " + now.Format(time.RFC1123))}},
		},
	}
}

func poApprovedMessage(a *model.Approval, approver string, now time.Time) slackMessage {
	status := a.PODetails.Status
	if status == "" {
		status = "CREATED"
	}
	return slackMessage{
		Text: "Purchase Order Approved",
		Blocks: []block{
			{"type": "header", "text": block{"type": "plain_text", "text": "Purchase Order Approved"}},
			{"type": "section", "fields": []block{
				mrkdwn("*Comparison ID:*\n" + a.ComparisonID),
				mrkdwn("*PO Number:*\n" + a.PODetails.PONumber),
				mrkdwn("*PO Status:*\n" + status),
				mrkdwn("*Approved By:*\n" + approver),
			}},
			{"type": "section", "text": mrkdwn("*Status:* Purchase order has been created and sent to vendor.\n*Time:* " + now.Format(time.RFC1123))},
		},
	}
}

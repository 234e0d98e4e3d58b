// Package flow triggers runs on the external workflow agent and waits for
// them with an upper bound.
package flow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusTimeout   = "TIMEOUT"
	StatusUnknown   = "UNKNOWN"

	SkillExtraction    = "document_extraction_flow"
	SkillComparison    = "vendor_comparison_flow"
	SkillPolicyRouting = "policy_routing_flow"
	SkillERP           = "erp_integration_flow"
)

var ErrNotConfigured = errors.New("flow: agent url, key or id not configured")

type Config struct {
	BaseURL      string
	APIKey       string
	AgentID      string
	PollInterval time.Duration
	Timeout      time.Duration // default wait for WaitForCompletion
}

func (c Config) Enabled() bool { return c.BaseURL != "" && c.APIKey != "" && c.AgentID != "" }

type Execution struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if !cfg.Enabled() {
		logger.Warn().
			Bool("url", cfg.BaseURL != "").
			Bool("api_key", cfg.APIKey != "").
			Bool("agent_id", cfg.AgentID != "").
			Msg("workflow agent credentials not fully configured")
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: logger,
	}
}

func (c *Client) Enabled() bool { return c.cfg.Enabled() }

// Trigger starts a run of skill with input.
func (c *Client) Trigger(ctx context.Context, skill string, input any) (*Execution, error) {
	if !c.cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	body, err := json.Marshal(map[string]any{"input": input, "skill": skill})
	if err != nil {
		return nil, fmt.Errorf("flow: encode: %w", err)
	}
	var ex Execution
	if err := c.do(ctx, http.MethodPost, "/v1/agents/"+c.cfg.AgentID+"/run", body, &ex); err != nil {
		return nil, err
	}
	if ex.Status == "" {
		ex.Status = StatusRunning
	}
	c.log.Info().Str("skill", skill).Str("execution_id", ex.ID).Msg("flow triggered")
	return &ex, nil
}

// Status fetches the current state of a run.
func (c *Client) Status(ctx context.Context, executionID string) (*Execution, error) {
	if !c.cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	var ex Execution
	if err := c.do(ctx, http.MethodGet, "/v1/agents/"+c.cfg.AgentID+"/runs/"+executionID, nil, &ex); err != nil {
		return nil, err
	}
	if ex.ID == "" {
		ex.ID = executionID
	}
	return &ex, nil
}

// WaitForCompletion polls until the run completes or fails. After maxWait it
// gives up and reports StatusTimeout instead of blocking further. Transient
// status errors are logged and polling continues.
func (c *Client) WaitForCompletion(ctx context.Context, executionID string, maxWait time.Duration) (*Execution, error) {
	if maxWait <= 0 {
		maxWait = c.cfg.Timeout
	}
	deadline := time.NewTimer(maxWait)
	defer deadline.Stop()
	tick := time.NewTicker(c.cfg.PollInterval)
	defer tick.Stop()

	start := time.Now()
	for {
		ex, err := c.Status(ctx, executionID)
		switch {
		case err != nil:
			c.log.Debug().Err(err).Str("execution_id", executionID).Msg("flow status check failed")
		case ex.Status == StatusCompleted || ex.Status == StatusFailed:
			c.log.Info().Str("execution_id", executionID).Str("status", ex.Status).Msg("flow finished")
			return ex, nil
		default:
			c.log.Debug().Str("execution_id", executionID).Dur("elapsed", time.Since(start)).Msg("flow still running")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			c.log.Warn().Str("execution_id", executionID).Dur("max_wait", maxWait).Msg("flow timeout")
			return &Execution{
				ID:     executionID,
				Status: StatusTimeout,
				Error:  fmt.Sprintf("flow did not complete within %s", maxWait),
			}, nil
		case <-tick.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("flow: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("flow: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("flow: %s %s: status %d", method, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("flow: decode: %w", err)
	}
	return nil
}

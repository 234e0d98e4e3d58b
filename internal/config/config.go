package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"quotecraft/internal/compare/service"
	"quotecraft/internal/flow"
	"quotecraft/internal/policy"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	MaxUploadMB  int
	LogFile      string
	ServiceName  string

	// matching and scoring
	MatchThreshold      float64
	DescriptionWeight   float64
	UnitWeight          float64
	OutlierVariancePct  float64
	ComplianceFull      float64
	CompliancePenalized float64
	ComplianceMode      string
	DefaultDeliveryDays int

	// policy
	ThreeQuoteCost          float64
	MinQuotes               int
	PriceWarningVariancePct float64
	ApprovalManagerLimit    float64
	ApprovalDirectorLimit   float64
	PreferredVendors        []string

	// collaborators
	SlackWebhookURL   string
	ApproverEmail     string
	NatsURL           string
	NatsSubjectPrefix string
	ERPPOPrefix       string
	FlowURL           string
	FlowAPIKey        string
	FlowAgentID       string
	FlowTimeout       time.Duration
	FlowPollInterval  time.Duration
}

// Load reads the environment; a .env file in the working directory is
// applied first when present and never overrides variables already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         getInt("PORT", 3001),
		AllowOrigins: splitList(getenv("ALLOW_ORIGINS", "*")),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		MaxUploadMB:  getInt("MAX_UPLOAD_MB", 50),
		LogFile:      getenv("LOG_FILE", "logs/quotecraft.log"),
		ServiceName:  getenv("SERVICE_NAME", "quotecraft"),

		MatchThreshold:      getFloat("MATCH_THRESHOLD", 0.4),
		DescriptionWeight:   getFloat("MATCH_DESCRIPTION_WEIGHT", 0.8),
		UnitWeight:          getFloat("MATCH_UNIT_WEIGHT", 0.2),
		OutlierVariancePct:  getFloat("OUTLIER_VARIANCE_PCT", 30),
		ComplianceFull:      getFloat("COMPLIANCE_FULL", 100),
		CompliancePenalized: getFloat("COMPLIANCE_PENALIZED", 80),
		ComplianceMode:      getenv("COMPLIANCE_MODE", string(service.ComplianceBinary)),
		DefaultDeliveryDays: getInt("DEFAULT_DELIVERY_DAYS", 14),

		ThreeQuoteCost:          getFloat("THREE_QUOTE_COST_THRESHOLD", 10000),
		MinQuotes:               getInt("MIN_QUOTES", 3),
		PriceWarningVariancePct: getFloat("PRICE_WARNING_VARIANCE_PCT", 50),
		ApprovalManagerLimit:    getFloat("APPROVAL_MANAGER_LIMIT", 50000),
		ApprovalDirectorLimit:   getFloat("APPROVAL_DIRECTOR_LIMIT", 500000),
		PreferredVendors:        splitList(getenv("PREFERRED_VENDORS", "")),

		SlackWebhookURL:   getenv("SLACK_WEBHOOK_URL", ""),
		ApproverEmail:     getenv("APPROVER_EMAIL", "approver@company.com"),
		NatsURL:           getenv("NATS_URL", ""),
		NatsSubjectPrefix: getenv("NATS_SUBJECT_PREFIX", "quotecraft"),
		ERPPOPrefix:       getenv("MOCK_ERP_PO_PREFIX", "TEST"),
		FlowURL:           getenv("ORCHESTRATE_URL", ""),
		FlowAPIKey:        getenv("ORCHESTRATE_API_KEY", ""),
		FlowAgentID:       getenv("ORCHESTRATE_AGENT_ID", ""),
		FlowTimeout:       getDuration("FLOW_TIMEOUT", 300*time.Second),
		FlowPollInterval:  getDuration("FLOW_POLL_INTERVAL", 2*time.Second),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func (c Config) EngineOptions() service.Options {
	mode := service.ComplianceMode(strings.ToLower(c.ComplianceMode))
	if mode != service.ComplianceProportional {
		mode = service.ComplianceBinary
	}
	return service.Options{
		Match: service.MatchOptions{
			Threshold:         c.MatchThreshold,
			DescriptionWeight: c.DescriptionWeight,
			UnitWeight:        c.UnitWeight,
		},
		Score: service.ScoreOptions{
			ComplianceFull:      c.ComplianceFull,
			CompliancePenalized: c.CompliancePenalized,
			Mode:                mode,
			DefaultDeliveryDays: c.DefaultDeliveryDays,
		},
		OutlierVariancePct: c.OutlierVariancePct,
	}
}

func (c Config) PolicyThresholds() policy.Thresholds {
	return policy.Thresholds{
		ThreeQuoteCost:          c.ThreeQuoteCost,
		MinQuotes:               c.MinQuotes,
		PriceWarningVariancePct: c.PriceWarningVariancePct,
		ManagerLimit:            c.ApprovalManagerLimit,
		DirectorLimit:           c.ApprovalDirectorLimit,
	}
}

func (c Config) Flow() flow.Config {
	return flow.Config{
		BaseURL:      c.FlowURL,
		APIKey:       c.FlowAPIKey,
		AgentID:      c.FlowAgentID,
		PollInterval: c.FlowPollInterval,
		Timeout:      c.FlowTimeout,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	i, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return def
	}
	return i
}

func getFloat(k string, def float64) float64 {
	f, err := strconv.ParseFloat(getenv(k, ""), 64)
	if err != nil {
		return def
	}
	return f
}

func getDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(k, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

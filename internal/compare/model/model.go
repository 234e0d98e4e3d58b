package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// BOQItem is one canonical line of a Bill of Quantities.
// It carries both the spreadsheet view (id, itemNumber, unit, quantity)
// and the priced view (lineNo, sku, estimatedPrice) used by the exact matcher.
type BOQItem struct {
	ID             string   `json:"id"`
	ItemNumber     string   `json:"itemNumber,omitempty"`
	LineNo         int      `json:"lineNo"`
	SKU            string   `json:"sku"`
	Description    string   `json:"description"`
	Spec           string   `json:"spec,omitempty"`
	Section        string   `json:"section,omitempty"`
	Unit           string   `json:"uom"`
	Quantity       float64  `json:"qty"`
	BaseRate       *float64 `json:"baseRate,omitempty"`
	EstimatedPrice float64  `json:"estimatedPrice"`
	TotalEstimate  float64  `json:"totalEstimate"`
}

// UnmarshalJSON accepts "unit"/"quantity" as aliases of "uom"/"qty".
func (b *BOQItem) UnmarshalJSON(data []byte) error {
	type plain BOQItem
	aux := struct {
		*plain
		UnitAlias     *string  `json:"unit"`
		QuantityAlias *float64 `json:"quantity"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.UnitAlias != nil && b.Unit == "" {
		b.Unit = *aux.UnitAlias
	}
	if aux.QuantityAlias != nil && b.Quantity == 0 {
		b.Quantity = *aux.QuantityAlias
	}
	return nil
}

// BOQ is the parsed bill. Items is nil when the source carried no items collection.
type BOQ struct {
	ID          string    `json:"id"`
	Version     string    `json:"version,omitempty"`
	DateCreated string    `json:"dateCreated,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Items       []BOQItem `json:"items"`
	TotalBOQ    float64   `json:"totalBOQ"`
}

// UnmarshalJSON leaves Items nil when "items" is not an array of items.
func (b *BOQ) UnmarshalJSON(data []byte) error {
	type plain BOQ
	aux := struct {
		*plain
		Items json.RawMessage `json:"items"`
	}{plain: (*plain)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Items = arrayOrNil[BOQItem](aux.Items)
	return nil
}

// QuoteItem is one vendor line. Rate and quantity have a UI spelling
// ("rate", "quantity") and a backend spelling ("unitPrice", "qty").
type QuoteItem struct {
	Vendor      string  `json:"vendor,omitempty"`
	Description string  `json:"description,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	BOQLineNo   int     `json:"boqLineNo,omitempty"`
	SKU         string  `json:"sku"`
	UnitPrice   float64 `json:"unitPrice"`
	Qty         float64 `json:"qty"`
	MinQty      float64 `json:"minQty,omitempty"`
	LeadTime    int     `json:"leadTime,omitempty"`
	Tax         float64 `json:"tax,omitempty"`
	LineTotal   float64 `json:"lineTotal,omitempty"`
}

func (q *QuoteItem) UnmarshalJSON(data []byte) error {
	type plain QuoteItem
	aux := struct {
		*plain
		RateAlias     *float64 `json:"rate"`
		QuantityAlias *float64 `json:"quantity"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.RateAlias != nil && q.UnitPrice == 0 {
		q.UnitPrice = *aux.RateAlias
	}
	if aux.QuantityAlias != nil && q.Qty == 0 {
		q.Qty = *aux.QuantityAlias
	}
	return nil
}

// Quote is one vendor submission. Items is nil when missing in the source.
type Quote struct {
	ID              string      `json:"id,omitempty"`
	VendorID        string      `json:"vendorId"`
	VendorName      string      `json:"vendorName"`
	DateReceived    string      `json:"dateReceived,omitempty"`
	Currency        string      `json:"currency,omitempty"`
	Items           []QuoteItem `json:"items"`
	ShippingCost    float64     `json:"shippingCost,omitempty"`
	DiscountPercent float64     `json:"discountPercent,omitempty"`
	TotalCost       float64     `json:"totalCost"`
	PaymentTerms    string      `json:"paymentTerms,omitempty"`
	Warranty        string      `json:"warranty,omitempty"`
}

// UnmarshalJSON leaves Items nil when "items" is not an array of items.
func (q *Quote) UnmarshalJSON(data []byte) error {
	type plain Quote
	aux := struct {
		*plain
		Items json.RawMessage `json:"items"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	q.Items = arrayOrNil[QuoteItem](aux.Items)
	return nil
}

func arrayOrNil[T any](raw json.RawMessage) []T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// ===== fuzzy matching =====

type Alternative struct {
	BOQID string  `json:"boqId"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// MatchResult is the fuzzy correspondence of one quote line.
// MatchedBOQID is nil only when no candidate cleared the threshold.
type MatchResult struct {
	Quote        QuoteItem     `json:"quote"`
	MatchedBOQID *string       `json:"matchedBoqId"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives"`
}

type ConfidenceBand string

const (
	ConfidenceHigh   ConfidenceBand = "high"
	ConfidenceMedium ConfidenceBand = "medium"
	ConfidenceLow    ConfidenceBand = "low"
)

// Band returns the display band of a confidence value.
func Band(confidence float64) ConfidenceBand {
	switch {
	case confidence >= 0.8:
		return ConfidenceHigh
	case confidence >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Selection is the chosen vendor and rate for one BOQ item.
type Selection struct {
	BOQItemID      string  `json:"boqItemId"`
	SelectedVendor string  `json:"selectedVendor"`
	FinalRate      float64 `json:"finalRate"`
}

// ===== exact-key matching =====

type MatchedItem struct {
	BOQLineNo     int     `json:"boqLineNo"`
	SKU           string  `json:"sku"`
	Description   string  `json:"description"`
	BOQQty        float64 `json:"boqQty"`
	BOQPrice      float64 `json:"boqPrice"`
	QuoteQty      float64 `json:"quoteQty"`
	QuotePrice    float64 `json:"quotePrice"`
	Variance      float64 `json:"variance"`
	Matched       bool    `json:"matched"`
	IsOutlier     bool    `json:"isOutlier"`
	OutlierReason string  `json:"outlierReason,omitempty"`
}

type UnmatchedItem struct {
	SKU        string  `json:"sku"`
	Qty        float64 `json:"qty"`
	QuotePrice float64 `json:"quotePrice"`
	Matched    bool    `json:"matched"`
	Reason     string  `json:"reason"`
}

// ===== scoring =====

type Recommendation string

const (
	Recommended Recommendation = "RECOMMENDED"
	Acceptable  Recommendation = "ACCEPTABLE"
	FlagReview  Recommendation = "FLAG_REVIEW"
)

type VendorScore struct {
	VendorID        string         `json:"vendorId"`
	VendorName      string         `json:"vendorName"`
	TotalCost       float64        `json:"totalCost"`
	Variance        float64        `json:"variance"`
	ComplianceScore float64        `json:"complianceScore"`
	DeliveryDays    int            `json:"deliveryDays"`
	Score           float64        `json:"score"`
	Recommendation  Recommendation `json:"recommendation"`
	MatchedCount    int            `json:"matchedCount"`
	UnmatchedCount  int            `json:"unmatchedCount"`
	OutlierCount    int            `json:"outlierCount"`
}

// ===== policy =====

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

type PolicyViolation struct {
	Policy   string   `json:"policy"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Action   string   `json:"action"`
}

type PolicyWarning struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

type PolicyEvaluation struct {
	Violations         []PolicyViolation `json:"violations"`
	Warnings           []PolicyWarning   `json:"warnings"`
	PolicyChecksPassed bool              `json:"policyChecksPassed"`
}

type ApprovalRoute string

const (
	RouteProcurementManager ApprovalRoute = "PROCUREMENT_MANAGER"
	RouteFinanceDirector    ApprovalRoute = "FINANCE_DIRECTOR"
	RouteExecutive          ApprovalRoute = "EXECUTIVE"
)

// ===== comparison =====

type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusCompleted       Status = "COMPLETED"
)

type AuditLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
}

// VendorMatch keeps the per-vendor exact-key partition next to the score.
type VendorMatch struct {
	VendorID  string          `json:"vendorId"`
	Matches   []MatchedItem   `json:"matches"`
	Unmatched []UnmatchedItem `json:"unmatched"`
}

type ComparisonResult struct {
	ID               string           `json:"id"`
	BOQID            string           `json:"boqId"`
	Quotes           []VendorScore    `json:"quotes"`
	Matches          []VendorMatch    `json:"matches"`
	BestVendor       string           `json:"bestVendor"`
	CostSavings      float64          `json:"costSavings"`
	ApprovalRoute    ApprovalRoute    `json:"approvalRoute"`
	Status           Status           `json:"status"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        *time.Time       `json:"updatedAt,omitempty"`
	PolicyEvaluation PolicyEvaluation `json:"policyEvaluation"`
	Selections       []Selection      `json:"selections"`
	AuditLog         []AuditLogEntry  `json:"auditLog"`
}

// Best returns the top ranked vendor score, if any.
func (c *ComparisonResult) Best() (VendorScore, bool) {
	if len(c.Quotes) == 0 {
		return VendorScore{}, false
	}
	return c.Quotes[0], true
}

// ===== approval =====

type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

type PurchaseOrder struct {
	Success                bool      `json:"success"`
	PONumber               string    `json:"poNumber"`
	POID                   string    `json:"poId"`
	ComparisonID           string    `json:"comparisonId"`
	Status                 string    `json:"status"`
	CreatedAt              time.Time `json:"createdAt"`
	VendorNotificationSent bool      `json:"vendorNotificationSent"`
}

type Approval struct {
	ID           string         `json:"id"`
	ComparisonID string         `json:"comparisonId"`
	Decision     Decision       `json:"decision"`
	ApproverRole string         `json:"approverRole,omitempty"`
	Approver     string         `json:"approverEmail,omitempty"`
	Comment      string         `json:"comment,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	NextStep     string         `json:"nextStep"`
	Message      string         `json:"message"`
	PODetails    *PurchaseOrder `json:"poDetails"`
}

// ===== kpi =====

type KPIMetrics struct {
	TotalProcessed    int     `json:"totalProcessed"`
	AvgProcessingTime string  `json:"avgProcessingTime"`
	STPRate           float64 `json:"stpRate"`
	AutoApprovedCount int     `json:"autoApprovedCount"`
	EscalatedCount    int     `json:"escalatedCount"`
	TotalCostSavings  float64 `json:"totalCostSavings"`
	AvgCostVariance   float64 `json:"avgCostVariance"`
	ErrorRate         float64 `json:"errorRate"`
}

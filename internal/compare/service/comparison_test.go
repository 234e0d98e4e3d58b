package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotecraft/internal/compare/model"
	"quotecraft/internal/policy"
)

func newTestEngine(preferred ...string) *Engine {
	e := NewEngine(DefaultOptions(), policy.New(policy.DefaultThresholds(), preferred), zerolog.Nop())
	e.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return e
}

func scenarioBOQ() *model.BOQ {
	return &model.BOQ{
		ID: "boq-1",
		Items: []model.BOQItem{
			{ID: "item-1", LineNo: 1, SKU: "CEM-50", Description: "Cement 50kg bag", Unit: "bag", Quantity: 150, EstimatedPrice: 105},
			{ID: "item-2", LineNo: 2, SKU: "TIL-600", Description: "Ceramic floor tile 600x600", Unit: "sqm", Quantity: 300, EstimatedPrice: 55},
		},
		TotalBOQ: 32250,
	}
}

func scenarioQuotes() []model.Quote {
	return []model.Quote{
		{
			VendorID:   "v-2",
			VendorName: "Acme Supplies",
			TotalCost:  40000,
			Items: []model.QuoteItem{
				{SKU: "CEM-50", Description: "Cement bag", UnitPrice: 110, Qty: 150},
				{SKU: "PAINT-9", Description: "Primer", UnitPrice: 12, Qty: 10},
			},
		},
		{
			VendorID:   "v-1",
			VendorName: "BuildMart",
			TotalCost:  32438.5,
			Items: []model.QuoteItem{
				{SKU: "CEM-50", Description: "OPC cement 50 kg bag", UnitPrice: 106.25, Qty: 150, LeadTime: 5},
				{SKU: "TIL-600", Description: "Floor tiles ceramic 600 x 600", UnitPrice: 55, Qty: 300},
			},
		},
	}
}

func TestCompare_Scenario(t *testing.T) {
	e := newTestEngine()
	res, err := e.Compare(scenarioBOQ(), scenarioQuotes())
	require.NoError(t, err)

	assert.Regexp(t, `^comp-[0-9a-f-]{36}$`, res.ID)
	assert.Equal(t, "boq-1", res.BOQID)
	assert.Equal(t, model.StatusPendingApproval, res.Status)

	require.Len(t, res.Quotes, 2)
	assert.Equal(t, "v-1", res.Quotes[0].VendorID, "ranked by score, highest first")
	assert.GreaterOrEqual(t, res.Quotes[0].Score, res.Quotes[1].Score)
	assert.InDelta(t, 119.7, res.Quotes[0].Score, 0.01)
	assert.Equal(t, model.Recommended, res.Quotes[0].Recommendation)
	assert.Equal(t, 5, res.Quotes[0].DeliveryDays)
	assert.Equal(t, 80.0, res.Quotes[1].ComplianceScore)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "v-1", res.Matches[0].VendorID)
	assert.Len(t, res.Matches[0].Matches, 2)
	assert.Len(t, res.Matches[1].Unmatched, 1)

	assert.Equal(t, "BuildMart", res.BestVendor)
	assert.InDelta(t, -188.5, res.CostSavings, 1e-9)

	// two usable quotes above 10k
	ev := res.PolicyEvaluation
	assert.False(t, ev.PolicyChecksPassed)
	require.Len(t, ev.Violations, 1)
	assert.Equal(t, policy.PolicyThreeQuote, ev.Violations[0].Policy)
	assert.Equal(t, model.RouteProcurementManager, res.ApprovalRoute)

	require.Len(t, res.AuditLog, 1)
	assert.Equal(t, ActionComparisonCreated, res.AuditLog[0].Action)
	assert.Equal(t, SystemUser, res.AuditLog[0].UserID)
	assert.Equal(t, e.now(), res.AuditLog[0].Timestamp)
	assert.NotNil(t, res.Selections)
}

func TestCompare_FreshIDPerCall(t *testing.T) {
	e := newTestEngine()
	a, err := e.Compare(scenarioBOQ(), scenarioQuotes())
	require.NoError(t, err)
	b, err := e.Compare(scenarioBOQ(), scenarioQuotes())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	a.ID, b.ID = "", ""
	assert.Equal(t, a, b)
}

func TestCompare_NoInput(t *testing.T) {
	_, err := newTestEngine().Compare(nil, nil)
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestCompare_SkipsQuotesWithoutItems(t *testing.T) {
	quotes := scenarioQuotes()
	quotes = append(quotes, model.Quote{VendorID: "v-3", VendorName: "Ghost", TotalCost: 1})

	res, err := newTestEngine().Compare(scenarioBOQ(), quotes)
	require.NoError(t, err)
	assert.Len(t, res.Quotes, 2)
	for _, q := range res.Quotes {
		assert.NotEqual(t, "v-3", q.VendorID)
	}
	assert.Contains(t, res.AuditLog[0].Details, "3 vendor quotes (2 scored)")
}

func TestCompare_BOQWithoutItems(t *testing.T) {
	res, err := newTestEngine().Compare(&model.BOQ{ID: "boq-empty"}, scenarioQuotes())
	require.NoError(t, err)
	assert.Empty(t, res.Quotes)
	assert.Empty(t, res.BestVendor)
	assert.Zero(t, res.CostSavings)
	assert.True(t, res.PolicyEvaluation.PolicyChecksPassed)
	assert.Equal(t, model.RouteProcurementManager, res.ApprovalRoute)
}

func TestCompare_NilBOQ(t *testing.T) {
	res, err := newTestEngine().Compare(nil, scenarioQuotes())
	require.NoError(t, err)
	assert.Empty(t, res.Quotes)
	assert.Empty(t, res.BOQID)
}

func TestCompare_RouteByCost(t *testing.T) {
	boq := &model.BOQ{
		ID:       "boq-big",
		Items:    []model.BOQItem{{ID: "item-1", SKU: "GEN", EstimatedPrice: 200000, Quantity: 1}},
		TotalBOQ: 200000,
	}
	quote := func(id string, total float64) model.Quote {
		return model.Quote{VendorID: id, VendorName: id, TotalCost: total,
			Items: []model.QuoteItem{{SKU: "GEN", UnitPrice: total, Qty: 1}}}
	}
	res, err := newTestEngine().Compare(boq, []model.Quote{
		quote("a", 210000), quote("b", 199000), quote("c", 230000),
	})
	require.NoError(t, err)
	assert.True(t, res.PolicyEvaluation.PolicyChecksPassed)
	assert.Equal(t, "b", res.BestVendor)
	assert.InDelta(t, 1000, res.CostSavings, 1e-9)
	assert.Equal(t, model.RouteFinanceDirector, res.ApprovalRoute)
}

func TestCompare_PreferredVendorWarning(t *testing.T) {
	res, err := newTestEngine("acme").Compare(scenarioBOQ(), scenarioQuotes())
	require.NoError(t, err)

	var msgs []string
	for _, w := range res.PolicyEvaluation.Warnings {
		msgs = append(msgs, w.Message)
	}
	assert.Contains(t, msgs, "BuildMart is not a preferred vendor")
	require.Len(t, res.PolicyEvaluation.Violations, 1, "warnings never add violations")

	res, err = newTestEngine("buildmart").Compare(scenarioBOQ(), scenarioQuotes())
	require.NoError(t, err)
	assert.Empty(t, res.PolicyEvaluation.Warnings)
}

package agreement

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/types"
)

func dp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func itemized() PricingFields {
	return PricingFields{
		BaseRate:         dp("2400"),
		InsuranceCost:    dp("350.50"),
		InsurancePackage: "comprehensive",
		MaintenanceCost:  dp("120"),
		RoadsideCost:     dp("45"),
		ReplacementCost:  dp("80"),
		StoredTotal:      decimal.RequireFromString("9999"),
	}
}

func TestResolve_Itemized(t *testing.T) {
	p := Resolve(Line{Pricing: itemized()})

	assert.True(t, p.HasBreakdown())
	assert.False(t, p.IsLegacy())
	assert.Equal(t, "comprehensive", p.InsurancePackage)
	assert.Equal(t, "2995.5", p.CalculatedTotal.String())
	sum := decimal.Sum(p.BaseRate, p.InsuranceCost, p.MaintenanceCost, p.RoadsideCost, p.ReplacementCost)
	assert.True(t, sum.Equal(p.CalculatedTotal))
}

func TestResolve_ItemizedWithMissingExtras(t *testing.T) {
	p := Resolve(Line{Pricing: PricingFields{BaseRate: dp("1800"), StoredTotal: decimal.RequireFromString("2100")}})

	assert.True(t, p.HasBreakdown())
	assert.True(t, p.InsuranceCost.IsZero())
	assert.Equal(t, "1800", p.CalculatedTotal.String())
}

func TestResolve_ZeroBaseRateIsStillItemized(t *testing.T) {
	p := Resolve(Line{Pricing: PricingFields{BaseRate: dp("0"), InsuranceCost: dp("100"), StoredTotal: decimal.RequireFromString("500")}})
	assert.True(t, p.HasBreakdown())
	assert.Equal(t, "100", p.CalculatedTotal.String())
}

func TestResolve_Legacy(t *testing.T) {
	p := Resolve(Line{Pricing: PricingFields{
		InsuranceCost: dp("300"),
		StoredTotal:   decimal.RequireFromString("3150.75"),
	}})

	assert.False(t, p.HasBreakdown())
	assert.True(t, p.IsLegacy())
	assert.Equal(t, "3150.75", p.BaseRate.String())
	assert.Equal(t, "3150.75", p.CalculatedTotal.String())
	assert.True(t, p.InsuranceCost.IsZero())
	assert.True(t, p.MaintenanceCost.IsZero())
	assert.True(t, p.RoadsideCost.IsZero())
	assert.True(t, p.ReplacementCost.IsZero())
}

func TestResolve_SameRuleForAgreementAndLine(t *testing.T) {
	for _, f := range []PricingFields{itemized(), {StoredTotal: decimal.RequireFromString("777")}} {
		fromAgreement := Resolve(Agreement{Pricing: f})
		fromLine := Resolve(Line{Pricing: f})
		assert.Equal(t, fromAgreement.Kind, fromLine.Kind)
		assert.True(t, fromAgreement.CalculatedTotal.Equal(fromLine.CalculatedTotal))
	}
}

func TestLinePricing_JSON(t *testing.T) {
	legacy := Resolve(Line{Pricing: PricingFields{StoredTotal: decimal.RequireFromString("500")}})
	b, err := json.Marshal(legacy)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, false, raw["hasBreakdown"])
	assert.Equal(t, true, raw["isLegacy"])
	assert.Equal(t, "legacy", raw["kind"])

	var back LinePricing
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.IsLegacy())
	assert.True(t, back.CalculatedTotal.Equal(legacy.CalculatedTotal))

	// records written before the kind field existed
	var old LinePricing
	require.NoError(t, json.Unmarshal([]byte(`{"hasBreakdown":true,"baseRate":"10","calculatedTotal":"10"}`), &old))
	assert.True(t, old.HasBreakdown())
}

type memRepo struct {
	agreements map[types.ID]*Agreement
	lines      map[types.ID][]Line
}

func (m *memRepo) GetAgreement(_ context.Context, id types.ID) (*Agreement, error) {
	a, ok := m.agreements[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *memRepo) ListLines(_ context.Context, id types.ID) ([]Line, error) {
	return m.lines[id], nil
}

func (m *memRepo) ListLinesByQuote(_ context.Context, quoteID types.ID) ([]Line, error) {
	for id, a := range m.agreements {
		if a.QuoteID == quoteID {
			return m.lines[id], nil
		}
	}
	return nil, nil
}

func TestService_Pricing(t *testing.T) {
	repo := &memRepo{
		agreements: map[types.ID]*Agreement{"ag1": {ID: "ag1", QuoteID: "q1", Pricing: PricingFields{StoredTotal: decimal.RequireFromString("5000")}}},
		lines: map[types.ID][]Line{"ag1": {
			{ID: "l1", Position: 1, Pricing: itemized()},
			{ID: "l2", Position: 2, Pricing: PricingFields{StoredTotal: decimal.RequireFromString("2004.5")}},
		}},
	}
	svc := NewService(repo)

	got, err := svc.Pricing(context.Background(), "ag1")
	require.NoError(t, err)
	assert.True(t, got.Agreement.IsLegacy())
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[0].HasBreakdown())
	assert.True(t, got.Lines[1].IsLegacy())

	_, err = svc.Pricing(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Pricing(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)

	lines, err := svc.CurrentLines(context.Background(), "q1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

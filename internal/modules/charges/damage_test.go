package charges

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrental/internal/modules/rates"
)

// tierTable returns a table whose OTHER row prices minor/moderate/major at the given costs.
func tierTable(minor, moderate, major string) *Calculator {
	tbl := rates.Default()
	tbl.DamageCost[rates.DamageOther] = map[rates.Severity]decimal.Decimal{
		rates.SeverityMinor:    dec(minor),
		rates.SeverityModerate: dec(moderate),
		rates.SeverityMajor:    dec(major),
	}
	return New(tbl)
}

func TestAssessDamage_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		customer string
		insurer  string
		claim    bool
		tier     LiabilityTier
	}{
		{"small repair customer pays", "499.99", "499.99", "0", false, TierCustomer},
		{"lower boundary enters excess tier", "500", "500", "0", true, TierExcess},
		{"mid excess tier", "1200", "1200", "0", true, TierExcess},
		{"upper boundary of excess tier", "1500", "1500", "0", true, TierExcess},
		{"just above excess tier", "1500.01", "1500", "0.01", true, TierFullClaim},
		{"full claim", "3500", "1500", "2000", true, TierFullClaim},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tierTable(tt.cost, tt.cost, tt.cost)
			got := c.AssessDamage(DamageMarker{ID: "d1", Type: rates.DamageOther, Severity: rates.SeverityMinor}, false, nil)
			assertDec(t, tt.cost, got.RepairCost)
			assertDec(t, tt.customer, got.CustomerLiability, "customer")
			assertDec(t, tt.insurer, got.InsuranceCovers, "insurer")
			assert.Equal(t, tt.claim, got.RequiresInsuranceClaim)
			assert.Equal(t, tt.tier, got.Tier)
			assert.True(t, got.Chargeable)
			assert.False(t, got.IsPreExisting)
			assert.True(t, got.CustomerLiability.Add(got.InsuranceCovers).Equal(got.RepairCost))
		})
	}
}

func TestAssessDamage_PreExistingNeverBilled(t *testing.T) {
	c := Default()
	for _, typ := range rates.DamageTypes {
		for _, sev := range rates.Severities {
			got := c.AssessDamage(DamageMarker{ID: "x", Type: typ, Severity: sev}, true, nil)
			assert.False(t, got.Chargeable)
			assert.Equal(t, TierPreExisting, got.Tier)
			assert.False(t, got.RequiresInsuranceClaim)
			assert.True(t, got.CustomerLiability.IsZero())
			assert.True(t, got.InsuranceCovers.IsZero())
			assert.True(t, got.RepairCost.IsPositive(), "repair cost is still reported")
		}
	}
}

func TestAssessDamage_SplitSumsToCostAcrossMatrix(t *testing.T) {
	c := Default()
	excesses := []string{"0", "750", "1500", "5000"}
	for _, ex := range excesses {
		excess := dec(ex)
		for _, typ := range rates.DamageTypes {
			for _, sev := range rates.Severities {
				got := c.AssessDamage(DamageMarker{Type: typ, Severity: sev}, false, &excess)
				require.True(t, got.Chargeable)
				assert.True(t, got.CustomerLiability.Add(got.InsuranceCovers).Equal(got.RepairCost),
					"%s/%s excess=%s", typ, sev, ex)
				assert.False(t, got.CustomerLiability.IsNegative())
				assert.False(t, got.InsuranceCovers.IsNegative())
			}
		}
	}
}

func TestAssessDamage_TierBoundsFollowTable(t *testing.T) {
	tbl := rates.Default()
	tbl.ExcessTierMax = dec("1000")
	tbl.DamageCost[rates.DamageOther] = map[rates.Severity]decimal.Decimal{
		rates.SeverityMinor:    dec("1000"),
		rates.SeverityModerate: dec("1000.01"),
		rates.SeverityMajor:    dec("2000"),
	}
	c := New(tbl)
	excess := dec("2500")

	at := c.AssessDamage(DamageMarker{Type: rates.DamageOther, Severity: rates.SeverityMinor}, false, &excess)
	assert.Equal(t, TierExcess, at.Tier)

	above := c.AssessDamage(DamageMarker{Type: rates.DamageOther, Severity: rates.SeverityModerate}, false, &excess)
	assert.Equal(t, TierFullClaim, above.Tier)
	// excess above the cost: the customer pays the cost, never more
	assertDec(t, "1000.01", above.CustomerLiability)
	assertDec(t, "0", above.InsuranceCovers)
}

func TestAssessDamage_CustomExcess(t *testing.T) {
	c := Default()
	excess := dec("1000")
	got := c.AssessDamage(DamageMarker{Type: rates.DamageMissing, Severity: rates.SeverityModerate}, false, &excess)
	assertDec(t, "1200", got.RepairCost)
	assertDec(t, "1000", got.CustomerLiability)
	assertDec(t, "200", got.InsuranceCovers)
	assert.True(t, got.RequiresInsuranceClaim)
}

func TestAssessDamage_FallbacksAreFlagged(t *testing.T) {
	c := Default()

	known := c.AssessDamage(DamageMarker{Type: rates.DamageScratch, Severity: rates.SeverityMinor}, false, nil)
	assert.False(t, known.LowConfidence)
	assert.Equal(t, rates.SourceExact, known.CostSource)

	unknownType := c.AssessDamage(DamageMarker{Type: "GRAFFITI", Severity: rates.SeverityMajor}, false, nil)
	assert.True(t, unknownType.LowConfidence)
	assert.Equal(t, rates.SourceTypeFallback, unknownType.CostSource)
	assertDec(t, "1500", unknownType.RepairCost)

	unknownSeverity := c.AssessDamage(DamageMarker{Type: rates.DamageDent, Severity: "severe"}, false, nil)
	assert.True(t, unknownSeverity.LowConfidence)
	assert.Equal(t, rates.SourceDefault, unknownSeverity.CostSource)
	assertDec(t, "500", unknownSeverity.RepairCost)
	assert.True(t, unknownSeverity.RequiresInsuranceClaim)
}

func TestCompareDamageSets(t *testing.T) {
	c := Default()
	checkout := []DamageMarker{
		{ID: "a", Type: rates.DamageScratch, Severity: rates.SeverityMinor, Position: "front-left"},
		{ID: "b", Type: rates.DamageDent, Severity: rates.SeverityModerate, Position: "rear"},
	}
	checkin := []DamageMarker{
		// same id, even though position and severity changed: still pre-existing
		{ID: "a", Type: rates.DamageScratch, Severity: rates.SeverityMajor, Position: "front-right"},
		{ID: "c", Type: rates.DamageDent, Severity: rates.SeverityMinor, Position: "rear"},
		{ID: "d", Type: rates.DamageBroken, Severity: rates.SeverityMajor, Position: "mirror"},
	}

	got := c.CompareDamageSets(checkout, checkin, nil)

	require.Len(t, got.Charges, 3)
	assert.True(t, got.Charges[0].IsPreExisting)
	assert.False(t, got.Charges[0].Chargeable)
	assert.False(t, got.Charges[1].IsPreExisting)
	assert.False(t, got.Charges[2].IsPreExisting)

	assert.Equal(t, []string{"a"}, markerIDs(got.PreExisting))
	assert.Equal(t, []string{"c", "d"}, markerIDs(got.NewDamage))
	assert.Equal(t, []string{"b"}, markerIDs(got.Resolved))

	// c: dent minor 300 -> customer 300; d: broken major 3500 -> excess 1500
	assertDec(t, "1800", DamageTotal(got.Charges))
	assert.Zero(t, LowConfidenceCount(got.Charges))
}

func TestCompareDamageSets_Empty(t *testing.T) {
	got := Default().CompareDamageSets(nil, nil, nil)
	assert.Empty(t, got.Charges)
	assert.NotNil(t, got.NewDamage)
	assertDec(t, "0", DamageTotal(got.Charges))
}

func markerIDs(ms []DamageMarker) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

// README: Damage liability tiers and checkout/check-in marker comparison.
package charges

import (
	"github.com/shopspring/decimal"

	"carrental/internal/types"
)

// AssessDamage prices one marker and splits the cost between customer and insurer.
// A nil insuranceExcess uses the table default.
//
// Tiers, on repair cost:
//   - pre-existing: nothing is charged
//   - below CustomerPaysBelow (500): the customer pays the full cost
//   - up to ExcessTierMax (1500) inclusive: the customer pays up to the excess, insurer the rest
//   - above ExcessTierMax: full claim, the customer pays the excess, insurer the rest
func (c *Calculator) AssessDamage(m DamageMarker, isPreExisting bool, insuranceExcess *decimal.Decimal) DamageCharge {
	excess := c.rates.InsuranceExcess
	if insuranceExcess != nil {
		excess = types.ClampZero(*insuranceExcess)
	}
	est := c.rates.DamageEstimate(m.Type, m.Severity)
	cost := est.Cost

	dc := DamageCharge{
		DamageID:      m.ID,
		DamageType:    m.Type,
		Severity:      m.Severity,
		RepairCost:    cost,
		IsPreExisting: isPreExisting,
		CostSource:    est.Source,
		LowConfidence: est.LowConfidence(),
	}

	switch {
	case isPreExisting:
		dc.Tier = TierPreExisting
		dc.CustomerLiability = decimal.Zero
		dc.InsuranceCovers = decimal.Zero
		return dc
	case cost.LessThan(c.rates.CustomerPaysBelow):
		dc.Tier = TierCustomer
		dc.CustomerLiability = cost
		dc.InsuranceCovers = decimal.Zero
	case cost.LessThanOrEqual(c.rates.ExcessTierMax):
		dc.Tier = TierExcess
		dc.CustomerLiability = decimal.Min(cost, excess)
		dc.InsuranceCovers = types.ClampZero(cost.Sub(excess))
		dc.RequiresInsuranceClaim = true
	default:
		dc.Tier = TierFullClaim
		// min keeps customer+insurer == cost when a configured excess is above the cost
		dc.CustomerLiability = decimal.Min(cost, excess)
		dc.InsuranceCovers = cost.Sub(dc.CustomerLiability)
		dc.RequiresInsuranceClaim = true
	}
	dc.Chargeable = true
	return dc
}

// CompareDamageSets marks each check-in marker as pre-existing when its ID was
// recorded at checkout. IDs are the only matching key.
func (c *Calculator) CompareDamageSets(checkout, checkin []DamageMarker, insuranceExcess *decimal.Decimal) DamageComparison {
	seen := make(map[string]struct{}, len(checkout))
	for _, m := range checkout {
		seen[m.ID] = struct{}{}
	}
	present := make(map[string]struct{}, len(checkin))

	out := DamageComparison{
		Charges:     make([]DamageCharge, 0, len(checkin)),
		NewDamage:   []DamageMarker{},
		PreExisting: []DamageMarker{},
		Resolved:    []DamageMarker{},
	}
	for _, m := range checkin {
		present[m.ID] = struct{}{}
		_, pre := seen[m.ID]
		out.Charges = append(out.Charges, c.AssessDamage(m, pre, insuranceExcess))
		if pre {
			out.PreExisting = append(out.PreExisting, m)
		} else {
			out.NewDamage = append(out.NewDamage, m)
		}
	}
	for _, m := range checkout {
		if _, ok := present[m.ID]; !ok {
			out.Resolved = append(out.Resolved, m)
		}
	}
	return out
}

// DamageTotal sums customer liability over chargeable entries.
func DamageTotal(list []DamageCharge) decimal.Decimal {
	total := decimal.Zero
	for _, dc := range list {
		if dc.Chargeable {
			total = total.Add(dc.CustomerLiability)
		}
	}
	return total
}

// LowConfidenceCount reports how many chargeable entries used a fallback cost.
func LowConfidenceCount(list []DamageCharge) int {
	n := 0
	for _, dc := range list {
		if dc.Chargeable && dc.LowConfidence {
			n++
		}
	}
	return n
}

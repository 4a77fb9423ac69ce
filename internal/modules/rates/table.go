// README: Rate tables with required defaults; lookups never fail.
package rates

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Table is the full set of pricing constants consumed by the charge calculators.
// A Table is read-only after construction and safe to share between goroutines.
type Table struct {
	VATRate             decimal.Decimal
	FuelPricePerLiter   decimal.Decimal
	DefaultTankCapacity decimal.Decimal
	InsuranceExcess     decimal.Decimal

	MileageGraceKm   decimal.Decimal
	KmRoundingStep   decimal.Decimal
	LateGraceHours   decimal.Decimal
	FullDayAfterHour decimal.Decimal

	ExcessKmRate   map[VehicleClass]decimal.Decimal
	LateHourlyRate map[VehicleClass]decimal.Decimal
	CleaningFee    map[CleaningType]decimal.Decimal

	// DamageCost is keyed by damage type, then severity. The DamageOther row is required.
	DamageCost         map[string]map[Severity]decimal.Decimal
	DamageFallbackCost decimal.Decimal

	// Liability tier thresholds on repair cost.
	CustomerPaysBelow decimal.Decimal
	ExcessTierMax     decimal.Decimal
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func Default() Table {
	return Table{
		VATRate:             d(0.05),
		FuelPricePerLiter:   d(4.5),
		DefaultTankCapacity: d(60),
		InsuranceExcess:     d(1500),
		MileageGraceKm:      d(50),
		KmRoundingStep:      d(10),
		LateGraceHours:      d(1),
		FullDayAfterHour:    d(3),
		ExcessKmRate: map[VehicleClass]decimal.Decimal{
			ClassEconomy:  d(1.5),
			ClassStandard: d(2.0),
			ClassLuxury:   d(2.5),
			ClassPremium:  d(3.0),
		},
		LateHourlyRate: map[VehicleClass]decimal.Decimal{
			ClassEconomy:  d(50),
			ClassStandard: d(75),
			ClassLuxury:   d(100),
			ClassPremium:  d(150),
		},
		CleaningFee: map[CleaningType]decimal.Decimal{
			CleaningNone:    d(0),
			CleaningLight:   d(100),
			CleaningDeep:    d(200),
			CleaningSmoking: d(500),
		},
		DamageCost: map[string]map[Severity]decimal.Decimal{
			DamageScratch: {SeverityMinor: d(200), SeverityModerate: d(500), SeverityMajor: d(1200)},
			DamageDent:    {SeverityMinor: d(300), SeverityModerate: d(800), SeverityMajor: d(2000)},
			DamageCrack:   {SeverityMinor: d(400), SeverityModerate: d(1000), SeverityMajor: d(2500)},
			DamageBroken:  {SeverityMinor: d(600), SeverityModerate: d(1500), SeverityMajor: d(3500)},
			DamageMissing: {SeverityMinor: d(500), SeverityModerate: d(1200), SeverityMajor: d(3000)},
			DamageStain:   {SeverityMinor: d(150), SeverityModerate: d(350), SeverityMajor: d(800)},
			DamageOther:   {SeverityMinor: d(300), SeverityModerate: d(750), SeverityMajor: d(1500)},
		},
		DamageFallbackCost: d(500),
		CustomerPaysBelow:  d(500),
		ExcessTierMax:      d(1500),
	}
}

// KmRate returns the per-km excess rate. Unknown classes use the standard rate.
func (t Table) KmRate(class VehicleClass) decimal.Decimal {
	if r, ok := t.ExcessKmRate[class]; ok {
		return r
	}
	return t.ExcessKmRate[ClassStandard]
}

// HourlyRate returns the late-return hourly rate. Unknown classes use the standard rate.
func (t Table) HourlyRate(class VehicleClass) decimal.Decimal {
	if r, ok := t.LateHourlyRate[class]; ok {
		return r
	}
	return t.LateHourlyRate[ClassStandard]
}

func (t Table) Cleaning(kind CleaningType) decimal.Decimal {
	if f, ok := t.CleaningFee[kind]; ok {
		return f
	}
	return decimal.Zero
}

// DamageEstimate resolves a repair cost. Unknown types use the OTHER row;
// a miss on that row too yields DamageFallbackCost.
func (t Table) DamageEstimate(damageType string, severity Severity) Estimate {
	if row, ok := t.DamageCost[damageType]; ok {
		if c, ok := row[severity]; ok {
			return Estimate{Cost: c, Source: SourceExact}
		}
	}
	if row, ok := t.DamageCost[DamageOther]; ok {
		if c, ok := row[severity]; ok {
			return Estimate{Cost: c, Source: SourceTypeFallback}
		}
	}
	return Estimate{Cost: t.DamageFallbackCost, Source: SourceDefault}
}

// Validate checks that every key set is complete and no rate is negative.
func (t Table) Validate() error {
	for _, c := range VehicleClasses {
		if r, ok := t.ExcessKmRate[c]; !ok || r.IsNegative() {
			return fmt.Errorf("rates: excess km rate missing or negative for %s", c)
		}
		if r, ok := t.LateHourlyRate[c]; !ok || r.IsNegative() {
			return fmt.Errorf("rates: late hourly rate missing or negative for %s", c)
		}
	}
	for _, k := range CleaningTypes {
		if f, ok := t.CleaningFee[k]; !ok || f.IsNegative() {
			return fmt.Errorf("rates: cleaning fee missing or negative for %s", k)
		}
	}
	other, ok := t.DamageCost[DamageOther]
	if !ok {
		return fmt.Errorf("rates: damage matrix has no %s row", DamageOther)
	}
	for _, s := range Severities {
		if _, ok := other[s]; !ok {
			return fmt.Errorf("rates: damage %s row missing severity %s", DamageOther, s)
		}
	}
	if t.KmRoundingStep.Sign() <= 0 {
		return fmt.Errorf("rates: km rounding step must be positive")
	}
	if t.VATRate.IsNegative() || t.FuelPricePerLiter.IsNegative() || t.InsuranceExcess.IsNegative() {
		return fmt.Errorf("rates: vat, fuel price and insurance excess must not be negative")
	}
	for name, v := range map[string]decimal.Decimal{
		"mileage grace km":     t.MileageGraceKm,
		"late grace hours":     t.LateGraceHours,
		"full day after hour":  t.FullDayAfterHour,
		"damage fallback cost": t.DamageFallbackCost,
		"customer pays below":  t.CustomerPaysBelow,
	} {
		if v.IsNegative() {
			return fmt.Errorf("rates: %s must not be negative", name)
		}
	}
	if t.ExcessTierMax.LessThan(t.CustomerPaysBelow) {
		return fmt.Errorf("rates: excess tier max must not be below customer pays below")
	}
	return nil
}

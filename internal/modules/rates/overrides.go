// README: Config-driven overrides of the default rate tables.
package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Overrides carries optional replacements for Default() values. Nil fields and
// unknown keys are ignored, so the key sets of the resulting table never change.
type Overrides struct {
	VATRate           *float64                      `mapstructure:"vat_rate"`
	FuelPricePerLiter *float64                      `mapstructure:"fuel_price_per_liter"`
	TankCapacity      *float64                      `mapstructure:"tank_capacity"`
	InsuranceExcess   *float64                      `mapstructure:"insurance_excess"`
	MileageGraceKm    *float64                      `mapstructure:"mileage_grace_km"`
	KmRoundingStep    *float64                      `mapstructure:"km_rounding_step"`
	LateGraceHours    *float64                      `mapstructure:"late_grace_hours"`
	FullDayAfterHour  *float64                      `mapstructure:"full_day_after_hour"`
	DamageFallback    *float64                      `mapstructure:"damage_fallback_cost"`
	CustomerPaysBelow *float64                      `mapstructure:"customer_pays_below"`
	ExcessTierMax     *float64                      `mapstructure:"excess_tier_max"`
	ExcessKmRate      map[string]float64            `mapstructure:"excess_km_rate"`
	LateHourlyRate    map[string]float64            `mapstructure:"late_hourly_rate"`
	CleaningFee       map[string]float64            `mapstructure:"cleaning_fee"`
	DamageCost        map[string]map[string]float64 `mapstructure:"damage_cost"`
}

// Apply returns a copy of t with o applied.
func (t Table) Apply(o Overrides) Table {
	out := t.clone()
	setIf := func(dst *decimal.Decimal, v *float64) {
		if v != nil {
			*dst = decimal.NewFromFloat(*v)
		}
	}
	setIf(&out.VATRate, o.VATRate)
	setIf(&out.FuelPricePerLiter, o.FuelPricePerLiter)
	setIf(&out.DefaultTankCapacity, o.TankCapacity)
	setIf(&out.InsuranceExcess, o.InsuranceExcess)
	setIf(&out.MileageGraceKm, o.MileageGraceKm)
	setIf(&out.KmRoundingStep, o.KmRoundingStep)
	setIf(&out.LateGraceHours, o.LateGraceHours)
	setIf(&out.FullDayAfterHour, o.FullDayAfterHour)
	setIf(&out.DamageFallbackCost, o.DamageFallback)
	setIf(&out.CustomerPaysBelow, o.CustomerPaysBelow)
	setIf(&out.ExcessTierMax, o.ExcessTierMax)

	for k, v := range o.ExcessKmRate {
		if c := VehicleClass(strings.ToLower(k)); c.IsValid() {
			out.ExcessKmRate[c] = decimal.NewFromFloat(v)
		}
	}
	for k, v := range o.LateHourlyRate {
		if c := VehicleClass(strings.ToLower(k)); c.IsValid() {
			out.LateHourlyRate[c] = decimal.NewFromFloat(v)
		}
	}
	for k, v := range o.CleaningFee {
		if c := CleaningType(strings.ToLower(k)); c.IsValid() {
			out.CleaningFee[c] = decimal.NewFromFloat(v)
		}
	}
	for typ, row := range o.DamageCost {
		typ = strings.ToUpper(typ)
		dst, ok := out.DamageCost[typ]
		if !ok {
			continue
		}
		for sev, v := range row {
			if s := Severity(strings.ToLower(sev)); s.IsValid() {
				dst[s] = decimal.NewFromFloat(v)
			}
		}
	}
	return out
}

func (t Table) clone() Table {
	out := t
	out.ExcessKmRate = make(map[VehicleClass]decimal.Decimal, len(t.ExcessKmRate))
	for k, v := range t.ExcessKmRate {
		out.ExcessKmRate[k] = v
	}
	out.LateHourlyRate = make(map[VehicleClass]decimal.Decimal, len(t.LateHourlyRate))
	for k, v := range t.LateHourlyRate {
		out.LateHourlyRate[k] = v
	}
	out.CleaningFee = make(map[CleaningType]decimal.Decimal, len(t.CleaningFee))
	for k, v := range t.CleaningFee {
		out.CleaningFee[k] = v
	}
	out.DamageCost = make(map[string]map[Severity]decimal.Decimal, len(t.DamageCost))
	for typ, row := range t.DamageCost {
		r := make(map[Severity]decimal.Decimal, len(row))
		for s, v := range row {
			r[s] = v
		}
		out.DamageCost[typ] = r
	}
	return out
}

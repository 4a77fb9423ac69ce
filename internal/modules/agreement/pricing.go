// README: Legacy-aware pricing breakdown shared by agreement and line records.
package agreement

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type PricingKind string

const (
	KindItemized PricingKind = "itemized"
	KindLegacy   PricingKind = "legacy"
)

// LinePricing is a component breakdown tagged by Kind. Legacy values carry the
// whole stored total as BaseRate with every other component zero.
type LinePricing struct {
	Kind             PricingKind
	BaseRate         decimal.Decimal
	InsuranceCost    decimal.Decimal
	InsurancePackage string
	MaintenanceCost  decimal.Decimal
	RoadsideCost     decimal.Decimal
	ReplacementCost  decimal.Decimal
	CalculatedTotal  decimal.Decimal
}

func (p LinePricing) HasBreakdown() bool { return p.Kind == KindItemized }
func (p LinePricing) IsLegacy() bool     { return p.Kind == KindLegacy }

// Resolve builds the breakdown for any record. Agreements and lines both go through
// here so totals never diverge between the two granularities.
func Resolve(src PricingSource) LinePricing {
	f := src.PricingFields()
	if f.BaseRate == nil {
		return LinePricing{
			Kind:             KindLegacy,
			BaseRate:         f.StoredTotal,
			InsuranceCost:    decimal.Zero,
			InsurancePackage: f.InsurancePackage,
			MaintenanceCost:  decimal.Zero,
			RoadsideCost:     decimal.Zero,
			ReplacementCost:  decimal.Zero,
			CalculatedTotal:  f.StoredTotal,
		}
	}
	p := LinePricing{
		Kind:             KindItemized,
		BaseRate:         *f.BaseRate,
		InsuranceCost:    valueOrZero(f.InsuranceCost),
		InsurancePackage: f.InsurancePackage,
		MaintenanceCost:  valueOrZero(f.MaintenanceCost),
		RoadsideCost:     valueOrZero(f.RoadsideCost),
		ReplacementCost:  valueOrZero(f.ReplacementCost),
	}
	p.CalculatedTotal = decimal.Sum(p.BaseRate, p.InsuranceCost, p.MaintenanceCost, p.RoadsideCost, p.ReplacementCost)
	return p
}

func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}

type linePricingJSON struct {
	Kind             PricingKind     `json:"kind"`
	HasBreakdown     bool            `json:"hasBreakdown"`
	IsLegacy         bool            `json:"isLegacy,omitempty"`
	BaseRate         decimal.Decimal `json:"baseRate"`
	InsuranceCost    decimal.Decimal `json:"insuranceCost"`
	InsurancePackage string          `json:"insurancePackage"`
	MaintenanceCost  decimal.Decimal `json:"maintenanceCost"`
	RoadsideCost     decimal.Decimal `json:"roadsideCost"`
	ReplacementCost  decimal.Decimal `json:"replacementCost"`
	CalculatedTotal  decimal.Decimal `json:"calculatedTotal"`
}

// MarshalJSON emits the discriminant both as kind and as the hasBreakdown/isLegacy
// flags consumed by the export layer.
func (p LinePricing) MarshalJSON() ([]byte, error) {
	return json.Marshal(linePricingJSON{
		Kind:             p.Kind,
		HasBreakdown:     p.HasBreakdown(),
		IsLegacy:         p.IsLegacy(),
		BaseRate:         p.BaseRate,
		InsuranceCost:    p.InsuranceCost,
		InsurancePackage: p.InsurancePackage,
		MaintenanceCost:  p.MaintenanceCost,
		RoadsideCost:     p.RoadsideCost,
		ReplacementCost:  p.ReplacementCost,
		CalculatedTotal:  p.CalculatedTotal,
	})
}

func (p *LinePricing) UnmarshalJSON(b []byte) error {
	var raw linePricingJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	kind := raw.Kind
	if kind == "" {
		kind = KindItemized
		if raw.IsLegacy || !raw.HasBreakdown {
			kind = KindLegacy
		}
	}
	*p = LinePricing{
		Kind:             kind,
		BaseRate:         raw.BaseRate,
		InsuranceCost:    raw.InsuranceCost,
		InsurancePackage: raw.InsurancePackage,
		MaintenanceCost:  raw.MaintenanceCost,
		RoadsideCost:     raw.RoadsideCost,
		ReplacementCost:  raw.ReplacementCost,
		CalculatedTotal:  raw.CalculatedTotal,
	}
	return nil
}

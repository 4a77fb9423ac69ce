// README: Charge inputs and results for return settlement.
package charges

import (
	"time"

	"github.com/shopspring/decimal"

	"carrental/internal/modules/rates"
)

type FuelInput struct {
	CheckoutLevel float64          // percent, 0-100
	CheckinLevel  float64          // percent, 0-100
	Policy        rates.FuelPolicy // empty means FULL_TO_FULL
	TankCapacity  float64          // liters; 0 means the table default
}

type FuelCharge struct {
	ShortageLiters decimal.Decimal `json:"shortage_liters"`
	Charge         decimal.Decimal `json:"charge"`
}

type MileageInput struct {
	CheckoutOdometer float64
	CheckinOdometer  float64
	IncludedKm       float64
	Class            rates.VehicleClass
	GracePeriodKm    *float64 // nil means the table default (50 km)
}

type MileageCharge struct {
	KmDriven  decimal.Decimal `json:"km_driven"`
	ExcessKm  decimal.Decimal `json:"excess_km"`
	RoundedKm decimal.Decimal `json:"rounded_km"`
	Charge    decimal.Decimal `json:"charge"`
}

type LateReturnInput struct {
	ScheduledReturn  time.Time
	ActualReturn     time.Time
	Class            rates.VehicleClass
	DailyRate        decimal.Decimal
	GracePeriodHours *float64 // nil means the table default (1 h)
}

type LateReturnCharge struct {
	LateHours decimal.Decimal `json:"late_hours"`
	Charge    decimal.Decimal `json:"charge"`
	IsFullDay bool            `json:"is_full_day"`
}

// DamageMarker is one damage annotation from a vehicle inspection. ID is stable
// across the checkout and check-in inspections of the same physical damage.
type DamageMarker struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Severity rates.Severity `json:"severity"`
	Position string         `json:"position"`
	Photos   []string       `json:"photos,omitempty"`
}

// LiabilityTier is how a damage's repair cost was split.
type LiabilityTier string

const (
	TierPreExisting LiabilityTier = "pre_existing"
	TierCustomer    LiabilityTier = "customer_pays"
	TierExcess      LiabilityTier = "insurance_excess"
	TierFullClaim   LiabilityTier = "full_claim"
)

type DamageCharge struct {
	DamageID               string               `json:"damage_id"`
	Tier                   LiabilityTier        `json:"tier"`
	DamageType             string               `json:"damage_type"`
	Severity               rates.Severity       `json:"severity"`
	RepairCost             decimal.Decimal      `json:"repair_cost"`
	CustomerLiability      decimal.Decimal      `json:"customer_liability"`
	InsuranceCovers        decimal.Decimal      `json:"insurance_covers"`
	RequiresInsuranceClaim bool                 `json:"requires_insurance_claim"`
	IsPreExisting          bool                 `json:"is_pre_existing"`
	Chargeable             bool                 `json:"chargeable"`
	CostSource             rates.EstimateSource `json:"cost_source"`
	LowConfidence          bool                 `json:"low_confidence"`
}

type DamageComparison struct {
	Charges     []DamageCharge `json:"charges"`
	NewDamage   []DamageMarker `json:"new_damage"`
	PreExisting []DamageMarker `json:"pre_existing"`
	// Resolved lists checkout markers not seen at check-in. Never charged.
	Resolved []DamageMarker `json:"resolved"`
}

// ChargeInput holds the six charge categories that make up a settlement.
type ChargeInput struct {
	DamageCharges    decimal.Decimal
	FuelCharge       decimal.Decimal
	ExcessKmCharge   decimal.Decimal
	CleaningFee      decimal.Decimal
	LateReturnCharge decimal.Decimal
	SalikCharge      decimal.Decimal
}

type TotalCharges struct {
	DamageCharges    decimal.Decimal `json:"damage_charges"`
	FuelCharge       decimal.Decimal `json:"fuel_charge"`
	ExcessKmCharge   decimal.Decimal `json:"excess_km_charge"`
	CleaningFee      decimal.Decimal `json:"cleaning_fee"`
	LateReturnCharge decimal.Decimal `json:"late_return_charge"`
	SalikCharge      decimal.Decimal `json:"salik_charge"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	VAT              decimal.Decimal `json:"vat"`
	Total            decimal.Decimal `json:"total"`
}

type DepositSettlement struct {
	Refund            decimal.Decimal `json:"refund"`
	AdditionalPayment decimal.Decimal `json:"additional_payment"`
}

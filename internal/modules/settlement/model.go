// README: Rental terms and settlement results for a returned vehicle.
package settlement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"carrental/internal/modules/charges"
	"carrental/internal/modules/rates"
	"carrental/internal/types"
)

var (
	ErrNotFound    = errors.New("agreement not found")
	ErrNotReturned = errors.New("vehicle not returned")
	ErrBadRequest  = errors.New("bad request")
)

// Terms are the priced conditions of one rental agreement.
type Terms struct {
	AgreementID     types.ID
	VehicleClass    rates.VehicleClass
	FuelPolicy      rates.FuelPolicy
	TankCapacity    float64
	IncludedKm      float64
	DailyRate       decimal.Decimal
	SecurityDeposit decimal.Decimal
	InsuranceExcess *decimal.Decimal
	PickupAt        time.Time
	ScheduledReturn time.Time
}

// Input is the full set of usage facts for one return.
type Input struct {
	Terms Terms

	CheckoutFuelLevel float64
	CheckinFuelLevel  float64
	CheckoutOdometer  float64
	CheckinOdometer   float64
	ActualReturn      time.Time
	Cleaning          rates.CleaningType
	CheckoutMarkers   []charges.DamageMarker
	CheckinMarkers    []charges.DamageMarker
	SalikCharge       decimal.Decimal
}

type Settlement struct {
	AgreementID   types.ID                  `json:"agreement_id,omitempty"`
	Fuel          charges.FuelCharge        `json:"fuel"`
	Mileage       charges.MileageCharge     `json:"mileage"`
	CleaningFee   decimal.Decimal           `json:"cleaning_fee"`
	LateReturn    charges.LateReturnCharge  `json:"late_return"`
	Damage        charges.DamageComparison  `json:"damage"`
	Totals        charges.TotalCharges      `json:"totals"`
	Deposit       charges.DepositSettlement `json:"deposit"`
	LowConfidence bool                      `json:"low_confidence"`
	Currency      string                    `json:"currency"`
	Summary       Summary                   `json:"summary"`
}

// Summary is the customer-facing view of a settlement, rounded to fils.
type Summary struct {
	Subtotal          types.Money `json:"subtotal"`
	VAT               types.Money `json:"vat"`
	Total             types.Money `json:"total"`
	Refund            types.Money `json:"refund"`
	AdditionalPayment types.Money `json:"additional_payment"`
}

func summarize(t charges.TotalCharges, d charges.DepositSettlement) Summary {
	return Summary{
		Subtotal:          types.AED(t.Subtotal),
		VAT:               types.AED(t.VAT),
		Total:             types.AED(t.Total),
		Refund:            types.AED(d.Refund),
		AdditionalPayment: types.AED(d.AdditionalPayment),
	}
}

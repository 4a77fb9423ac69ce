// README: Lease agreements and their vehicle lines as stored, itemized or legacy.
package agreement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"carrental/internal/modules/rates"
	"carrental/internal/types"
)

var (
	ErrNotFound   = errors.New("agreement not found")
	ErrBadRequest = errors.New("bad request")
)

// PricingFields is the raw shape shared by agreement and line records. BaseRate is
// nil on records created before per-component pricing was stored.
type PricingFields struct {
	BaseRate         *decimal.Decimal
	InsuranceCost    *decimal.Decimal
	InsurancePackage string
	MaintenanceCost  *decimal.Decimal
	RoadsideCost     *decimal.Decimal
	ReplacementCost  *decimal.Decimal
	StoredTotal      decimal.Decimal
}

// PricingSource is implemented by every record the pricing adapter accepts.
type PricingSource interface {
	PricingFields() PricingFields
}

type Agreement struct {
	ID        types.ID
	QuoteID   types.ID
	Number    string
	Status    string
	Pricing   PricingFields
	CreatedAt time.Time
}

func (a Agreement) PricingFields() PricingFields { return a.Pricing }

// Line is one vehicle line of a lease agreement.
type Line struct {
	ID              types.ID
	AgreementID     types.ID
	Position        int
	VehicleID       string
	VehicleClass    rates.VehicleClass
	Quantity        int
	LeaseTermMonths int
	MonthlyRate     decimal.Decimal
	Pricing         PricingFields
}

func (l Line) PricingFields() PricingFields { return l.Pricing }

type AgreementPricing struct {
	AgreementID types.ID      `json:"agreement_id"`
	Agreement   LinePricing   `json:"agreement"`
	Lines       []LinePricing `json:"lines"`
}

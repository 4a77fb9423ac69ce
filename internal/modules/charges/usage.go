// README: Fuel, mileage, cleaning, and late-return charges.
package charges

import (
	"time"

	"github.com/shopspring/decimal"

	"carrental/internal/modules/rates"
	"carrental/internal/types"
)

// Fuel prices the fuel shortfall. Returning with equal or more fuel never charges.
func (c *Calculator) Fuel(in FuelInput) FuelCharge {
	policy := in.Policy
	if policy == "" {
		policy = rates.FuelFullToFull
	}
	tank := c.rates.DefaultTankCapacity
	if in.TankCapacity > 0 {
		tank = decimal.NewFromFloat(in.TankCapacity)
	}
	diff := decimal.NewFromFloat(in.CheckoutLevel).Sub(decimal.NewFromFloat(in.CheckinLevel))

	if policy == rates.FuelPrepaid {
		return FuelCharge{ShortageLiters: decimal.Zero, Charge: decimal.Zero}
	}
	if policy == rates.FuelSameToSame && diff.IsZero() {
		return FuelCharge{ShortageLiters: decimal.Zero, Charge: decimal.Zero}
	}
	if diff.Sign() <= 0 {
		return FuelCharge{ShortageLiters: decimal.Zero, Charge: decimal.Zero}
	}

	liters := diff.Div(hundred).Mul(tank)
	return FuelCharge{
		ShortageLiters: liters,
		Charge:         liters.Mul(c.rates.FuelPricePerLiter),
	}
}

// ExcessKm prices distance beyond the included allowance plus grace. The excess
// is rounded up to the next multiple of the rounding step before pricing.
func (c *Calculator) ExcessKm(in MileageInput) MileageCharge {
	grace := orDefault(in.GracePeriodKm, c.rates.MileageGraceKm)
	driven := decimal.NewFromFloat(in.CheckinOdometer).Sub(decimal.NewFromFloat(in.CheckoutOdometer))
	excess := types.ClampZero(driven.Sub(decimal.NewFromFloat(in.IncludedKm)).Sub(grace))

	step := c.rates.KmRoundingStep
	rounded := excess.Div(step).Ceil().Mul(step)
	return MileageCharge{
		KmDriven:  driven,
		ExcessKm:  excess,
		RoundedKm: rounded,
		Charge:    rounded.Mul(c.rates.KmRate(in.Class)),
	}
}

// Cleaning is a flat fee lookup. Smoking fees are non-refundable; that is enforced by callers.
func (c *Calculator) Cleaning(kind rates.CleaningType) decimal.Decimal {
	return c.rates.Cleaning(kind)
}

// LateReturn charges ceil(hours) at the hourly class rate up to the full-day
// cutover; past the cutover the daily rate applies instead.
func (c *Calculator) LateReturn(in LateReturnInput) LateReturnCharge {
	grace := orDefault(in.GracePeriodHours, c.rates.LateGraceHours)
	diff := decimal.NewFromInt(int64(in.ActualReturn.Sub(in.ScheduledReturn))).
		Div(decimal.NewFromInt(int64(time.Hour)))
	late := types.ClampZero(diff.Sub(grace))

	if late.IsZero() {
		return LateReturnCharge{LateHours: decimal.Zero, Charge: decimal.Zero}
	}
	if late.GreaterThan(c.rates.FullDayAfterHour) {
		return LateReturnCharge{LateHours: late, Charge: types.ClampZero(in.DailyRate), IsFullDay: true}
	}
	return LateReturnCharge{
		LateHours: late,
		Charge:    late.Ceil().Mul(c.rates.HourlyRate(in.Class)),
	}
}

// README: Settlement totals with single VAT application, and deposit netting.
package charges

import (
	"github.com/shopspring/decimal"

	"carrental/internal/types"
)

// Totals sums the six charge categories and applies VAT once to the subtotal.
// Negative inputs are treated as zero; charges are never negative.
func (c *Calculator) Totals(in ChargeInput) TotalCharges {
	t := TotalCharges{
		DamageCharges:    types.ClampZero(in.DamageCharges),
		FuelCharge:       types.ClampZero(in.FuelCharge),
		ExcessKmCharge:   types.ClampZero(in.ExcessKmCharge),
		CleaningFee:      types.ClampZero(in.CleaningFee),
		LateReturnCharge: types.ClampZero(in.LateReturnCharge),
		SalikCharge:      types.ClampZero(in.SalikCharge),
	}
	t.Subtotal = decimal.Sum(t.DamageCharges, t.FuelCharge, t.ExcessKmCharge,
		t.CleaningFee, t.LateReturnCharge, t.SalikCharge)
	t.VAT = c.VAT(t.Subtotal)
	t.Total = t.Subtotal.Add(t.VAT)
	return t
}

func (c *Calculator) VAT(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.rates.VATRate)
}

// Deposit nets total charges against the held security deposit.
func Deposit(securityDeposit, totalCharges decimal.Decimal) DepositSettlement {
	balance := securityDeposit.Sub(totalCharges)
	if balance.Sign() >= 0 {
		return DepositSettlement{Refund: balance, AdditionalPayment: decimal.Zero}
	}
	return DepositSettlement{Refund: decimal.Zero, AdditionalPayment: balance.Abs()}
}

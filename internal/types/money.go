// README: Common money helpers and value objects used across modules.
package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Currency is the settlement currency for every amount in the system.
const Currency = "AED"

// Money is a presentation amount: rounded to fils and tagged with its currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// AED rounds d to fils for display.
func AED(d decimal.Decimal) Money {
	return Money{Amount: Round2(d), Currency: Currency}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{m.Amount.StringFixed(2), m.Currency})
}

// Round2 rounds half away from zero to fils for display and export. Calculations
// keep full precision.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

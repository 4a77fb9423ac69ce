// README: Calculator binds the charge formulas to a rate table.
package charges

import (
	"github.com/shopspring/decimal"

	"carrental/internal/modules/rates"
)

// Calculator is stateless apart from its rate table and safe for concurrent use.
type Calculator struct {
	rates rates.Table
}

func New(table rates.Table) *Calculator {
	return &Calculator{rates: table}
}

var defaultCalculator = New(rates.Default())

// Default returns a Calculator over rates.Default().
func Default() *Calculator {
	return defaultCalculator
}

var hundred = decimal.NewFromInt(100)

func orDefault(v *float64, def decimal.Decimal) decimal.Decimal {
	if v == nil {
		return def
	}
	return decimal.NewFromFloat(*v)
}

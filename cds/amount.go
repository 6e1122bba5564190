package cds

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyAmount is a present value tagged with its currency.
type CurrencyAmount struct {
	Currency string
	Amount   float64
}

// Decimal returns the amount rounded half away from zero to places decimals.
func (a CurrencyAmount) Decimal(places int32) decimal.Decimal {
	return decimal.NewFromFloat(a.Amount).Round(places)
}

func (a CurrencyAmount) String() string {
	return fmt.Sprintf("%s %s", a.Currency, a.Decimal(2).StringFixed(2))
}

package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in an ISO currency.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// ParseMoney reads the decimal string form the commerce API returns.
// Unparseable amounts become zero.
func ParseMoney(amount, currency string) Money {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		d = decimal.Zero
	}
	return Money{Amount: d, CurrencyCode: strings.ToUpper(strings.TrimSpace(currency))}
}

// String formats the amount with two fraction digits, e.g. "129.00 USD".
func (m Money) String() string {
	if m.CurrencyCode == "" {
		return m.Amount.StringFixed(2)
	}
	return m.Amount.StringFixed(2) + " " + m.CurrencyCode
}

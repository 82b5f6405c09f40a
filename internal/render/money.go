package render

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "USD"

// Money formats decimal amounts in one currency.
type Money struct {
	code string
	cur  *money.Currency
}

// NewMoney returns a formatter for the ISO 4217 code. Unknown codes fall
// back to "<amount> <code>".
func NewMoney(code string) Money {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	return Money{code: code, cur: money.GetCurrency(code)}
}

// Format renders d with the currency's minor units, e.g. "$1,234.50".
func (m Money) Format(d decimal.Decimal) string {
	if m.cur == nil {
		return d.StringFixed(2) + " " + m.code
	}
	factor := decimal.New(1, int32(m.cur.Fraction))
	return money.New(d.Mul(factor).Round(0).IntPart(), m.code).Display()
}

// Whole renders d rounded to whole units, e.g. "$1,235".
func (m Money) Whole(d decimal.Decimal) string {
	if m.cur == nil {
		return d.StringFixed(0) + " " + m.code
	}
	s := m.Format(d.Round(0))
	if m.cur.Fraction > 0 {
		s = strings.Replace(s, m.cur.Decimal+strings.Repeat("0", m.cur.Fraction), "", 1)
	}
	return s
}

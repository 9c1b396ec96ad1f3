// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents so that adding and removing the same
// transaction restores a balance exactly. Decimal text from forms and rows is
// converted with shopspring/decimal.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidAmount = errors.New("invalid amount")

var brl = message.NewPrinter(language.BrazilianPortuguese)

type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two decimals and a dot separator.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Comma renders the amount with two decimals and a comma separator, the
// format spreadsheets in pt-BR expect.
func (m Money) Comma() string {
	return strings.Replace(m.String(), ".", ",", 1)
}

// BRL renders the amount for display, e.g. "R$ 1.234,50".
func (m Money) BRL() string {
	f, _ := m.Decimal().Float64()
	return brl.Sprintf("R$ %.2f", f)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// MoneyFromDecimal rounds half away from zero to the nearest cent.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// ParseAmount converts user input to a positive amount. Both dot (12.34) and
// comma (12,34) decimal separators are accepted.
//
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.Replace(s, ",", ".", 1)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := MoneyFromDecimal(d)
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

package entities

import (
	"fmt"
	"math"

	"github.com/fadedpez/blackjack/internal/types"
)

// DefaultCurrency is used when no currency is configured
const DefaultCurrency = "USD"

// Money is an amount in minor units (cents) tagged with a currency code
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney creates Money from an amount already in minor units
func NewMoney(cents int64, currency string) Money {
	return Money{Amount: cents, Currency: currency}
}

// FromMajor creates Money from a whole-unit amount such as 12.50, rounded to the nearest cent
func FromMajor(amount float64, currency string) Money {
	return Money{Amount: int64(math.Round(amount * 100)), Currency: currency}
}

// Dollars is shorthand for FromMajor in the default currency
func Dollars(amount float64) Money {
	return FromMajor(amount, DefaultCurrency)
}

// Zero returns a zero amount in the given currency
func Zero(currency string) Money {
	return Money{Currency: currency}
}

// Major returns the amount in whole units
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsPositive reports whether the amount is above zero
func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// IsNegative reports whether the amount is below zero
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// SameCurrency checks that both amounts carry the same currency tag
func (m Money) SameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return types.Errorf(types.ErrCurrencyMismatch, "cannot combine %s with %s", m.Currency, other.Currency)
	}
	return nil
}

// Add returns m + other
func (m Money) Add(other Money) (Money, error) {
	if err := m.SameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub returns m - other
func (m Money) Sub(other Money) (Money, error) {
	if err := m.SameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Cmp compares two amounts, returning -1, 0 or 1
func (m Money) Cmp(other Money) (int, error) {
	if err := m.SameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.Amount < other.Amount:
		return -1, nil
	case m.Amount > other.Amount:
		return 1, nil
	}
	return 0, nil
}

// MulFloat scales the amount by factor, rounding half away from zero to the nearest cent
func (m Money) MulFloat(factor float64) Money {
	return Money{Amount: int64(math.Round(float64(m.Amount) * factor)), Currency: m.Currency}
}

// Neg returns the negated amount
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// String formats the amount as "12.50 USD"
func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, m.Currency)
}

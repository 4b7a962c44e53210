package shared

import (
	"fmt"
	"math"
	"strings"
)

// Money represents a monetary amount in minor units (cents) with a currency code.
type Money struct {
	cents    int64
	currency string
}

// NewMoney creates a monetary amount from minor units. The currency
// code must be 3 uppercase letters.
func NewMoney(cents int64, currency string) (Money, error) {
	currency = strings.TrimSpace(currency)
	if err := validateCurrency(currency); err != nil {
		return Money{}, err
	}
	if cents < 0 {
		return Money{}, fmt.Errorf("the amount cannot be negative: %d", cents)
	}
	return Money{cents: cents, currency: currency}, nil
}

// MustNewMoney creates a monetary amount, panicking on invalid input.
func MustNewMoney(cents int64, currency string) Money {
	m, err := NewMoney(cents, currency)
	if err != nil {
		panic(fmt.Sprintf("invalid monetary amount %d %s: %v", cents, currency, err))
	}
	return m
}

// NewMoneyFromFloat creates a monetary amount from a decimal value,
// rounding to the nearest cent.
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, fmt.Errorf("the amount must be a finite number")
	}
	return NewMoney(int64(math.Round(amount*100)), currency)
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{cents: 0, currency: strings.TrimSpace(currency)}
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Currency() string {
	return m.currency
}

func (m Money) Float64() float64 {
	return float64(m.cents) / 100
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

// Add sums two amounts. A zero amount adopts the other operand's
// currency; otherwise the currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.cents == 0 {
		if other.cents == 0 {
			return m, nil
		}
		return other, nil
	}
	if other.cents == 0 {
		return m, nil
	}
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.currency, m.currency)
	}
	return Money{cents: m.cents + other.cents, currency: m.currency}, nil
}

func (m Money) Equal(other Money) bool {
	return m.cents == other.cents && m.currency == other.currency
}

// String implements fmt.Stringer.
func (m Money) String() string {
	if m.currency == "" {
		return fmt.Sprintf("%.2f", m.Float64())
	}
	return fmt.Sprintf("%.2f %s", m.Float64(), m.currency)
}

func validateCurrency(currency string) error {
	if currency == "" {
		return fmt.Errorf("the currency code cannot be empty")
	}
	if len(currency) != 3 {
		return fmt.Errorf("the currency code must be 3 letters: %s", currency)
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("the currency code must be 3 uppercase letters: %s", currency)
		}
	}
	return nil
}

package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is a closed enumeration of supported currency codes. Wallets are
// looked up by (id, currency), so a mismatched currency is a not-found
// condition for the caller, never a conversion request.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// ParseCurrency validates a currency code against the supported set.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case USD, EUR:
		return Currency(code), nil
	default:
		return "", fmt.Errorf("unsupported currency %q", code)
	}
}

// Valid reports whether the currency is a member of the supported set.
func (c Currency) Valid() bool {
	_, err := ParseCurrency(string(c))
	return err == nil
}

// Money is an exact, currency-tagged decimal amount. All balance arithmetic
// goes through this type; floating point never touches the balance path.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// New builds a Money value from an exact decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// Zero returns the zero amount in the given currency.
func Zero(currency Currency) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns m + other. Mixing currencies is an error.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Mixing currencies is an error.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// GreaterThan reports m.Amount > other, ignoring currency. Callers compare
// against limits expressed as bare decimals (e.g. the configured ceiling).
func (m Money) GreaterThan(other decimal.Decimal) bool {
	return m.Amount.GreaterThan(other)
}

func (m Money) String() string {
	return m.Amount.String() + " " + string(m.Currency)
}

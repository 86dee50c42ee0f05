package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("USD")
	require.NoError(t, err)
	require.Equal(t, USD, c)

	c, err = ParseCurrency("EUR")
	require.NoError(t, err)
	require.Equal(t, EUR, c)

	_, err = ParseCurrency("usd")
	require.Error(t, err)

	_, err = ParseCurrency("XAF")
	require.Error(t, err)

	require.True(t, USD.Valid())
	require.False(t, Currency("").Valid())
}

func TestAddSubExact(t *testing.T) {
	balance := New(dec(t, "9999999.12"), USD)
	amount := New(dec(t, "789.98"), USD)

	debited, err := balance.Sub(amount)
	require.NoError(t, err)
	require.Equal(t, "9999209.14", debited.Amount.String())

	credited, err := New(dec(t, "12.12"), USD).Add(amount)
	require.NoError(t, err)
	require.Equal(t, "802.10", credited.Amount.String())
}

func TestCurrencyMismatch(t *testing.T) {
	usd := New(dec(t, "10"), USD)
	eur := New(dec(t, "10"), EUR)

	_, err := usd.Add(eur)
	require.Error(t, err)

	_, err = usd.Sub(eur)
	require.Error(t, err)
}

func TestSigns(t *testing.T) {
	m := New(dec(t, "5.50"), USD)
	require.True(t, m.IsPositive())
	require.False(t, m.IsNegative())

	n := m.Neg()
	require.True(t, n.IsNegative())
	require.Equal(t, "-5.5 USD", n.String())

	z := Zero(USD)
	require.False(t, z.IsPositive())
	require.False(t, z.IsNegative())
}

func TestGreaterThan(t *testing.T) {
	limit := dec(t, "10000000")
	require.False(t, New(dec(t, "10000000"), USD).GreaterThan(limit))
	require.True(t, New(dec(t, "10000000.01"), USD).GreaterThan(limit))
}

package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromFloat(12.5), EUR)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromFloat(12.5)))
	assert.Equal(t, EUR, m.Currency())

	_, err = NewMoney(decimal.NewFromInt(1), "")
	assert.Error(t, err)
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, c)

	_, err = ParseCurrency("EURO")
	assert.Error(t, err)
	_, err = ParseCurrency("E1R")
	assert.Error(t, err)
}

func TestCurrencyOrDefault(t *testing.T) {
	assert.Equal(t, DefaultCurrency, Currency("").OrDefault())
	assert.Equal(t, GBP, GBP.OrDefault())
}

func TestMoneyApplyDiscount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		percent  string
		expected string
	}{
		{"ten percent", "100", "10", "90"},
		{"zero percent", "42.50", "0", "42.5"},
		{"fractional percent", "200", "12.5", "175"},
		{"over one hundred is not clamped", "10", "150", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MustNewMoney(decimal.RequireFromString(tt.amount), EUR)
			got := m.ApplyDiscount(decimal.RequireFromString(tt.percent))
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got.Amount()),
				"expected %s, got %s", tt.expected, got.Amount())
			assert.Equal(t, EUR, got.Currency())
		})
	}
}

func TestMoneyString(t *testing.T) {
	m := MustNewMoney(decimal.RequireFromString("7.5"), CHF)
	assert.Equal(t, "7.50 CHF", m.String())
}

func TestMustNewMoney_PanicsWithoutCurrency(t *testing.T) {
	assert.Panics(t, func() { MustNewMoney(decimal.NewFromInt(1), "") })
}

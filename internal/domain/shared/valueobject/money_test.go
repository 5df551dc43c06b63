package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompareAtMoneyScale(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal after rounding", "10.004", "10.00", 0},
		{"rounds half away from zero", "10.005", "10.01", 0},
		{"less", "9.99", "10", -1},
		{"greater", "10.01", "10", 1},
		{"negative", "-0.004", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(d(tt.a), d(tt.b)))
		})
	}
}

func TestPredicates(t *testing.T) {
	assert.True(t, Equal(d("1.001"), d("1")))
	assert.True(t, GreaterThan(d("1.01"), d("1")))
	assert.True(t, GreaterThanOrEqual(d("1.004"), d("1")))
	assert.True(t, LessThan(d("0.99"), d("1")))
	assert.True(t, IsZero(d("0.004")))
	assert.False(t, IsPositive(d("0.004")))
	assert.True(t, IsPositive(d("0.005")))
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.True(t, Sum(d("0.1"), d("0.2"), d("0.3")).Equal(d("0.6")))
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("123.45")
	require.NoError(t, err)
	assert.True(t, v.Equal(d("123.45")))

	_, err = ParseAmount("not-a-number")
	assert.Error(t, err)
}

func TestMoneyArithmetic(t *testing.T) {
	m := NewMoneyFromInt(100)

	assert.Equal(t, "150.00", m.Add(NewMoneyFromInt(50)).String())
	assert.Equal(t, "75.00", m.Sub(NewMoneyFromInt(25)).String())
	assert.Equal(t, "300.00", m.MulInt(3).String())
	assert.Equal(t, "110.00", m.Percent(d("10")).String())
	assert.Equal(t, "95.00", m.Percent(d("-5")).String())
	assert.True(t, m.Sub(NewMoneyFromInt(101)).IsNegative())
	assert.True(t, Zero().IsZero())
}

func TestMoneyComparison(t *testing.T) {
	a := NewMoney(d("10.001"))
	b := NewMoney(d("10"))
	assert.True(t, a.Equals(b))
	assert.True(t, a.GreaterThanOrEqual(b))
	assert.Equal(t, "10.00", a.Rounded().String())
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(NewMoney(d("12.5")))
	require.NoError(t, err)
	assert.JSONEq(t, `"12.50"`, string(data))

	var fromString Money
	require.NoError(t, json.Unmarshal([]byte(`"7.25"`), &fromString))
	assert.True(t, fromString.Amount().Equal(d("7.25")))

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`7.25`), &fromNumber))
	assert.True(t, fromNumber.Amount().Equal(d("7.25")))

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &bad))
}

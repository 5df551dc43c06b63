package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every monetary comparison is
// evaluated at. Intermediate results keep full precision.
const MoneyScale int32 = 2

// Round rounds d half away from zero to MoneyScale places
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Compare compares a and b at MoneyScale. It returns -1, 0 or 1.
func Compare(a, b decimal.Decimal) int {
	return Round(a).Cmp(Round(b))
}

// Equal reports whether a and b are equal at MoneyScale
func Equal(a, b decimal.Decimal) bool {
	return Compare(a, b) == 0
}

// GreaterThan reports whether a > b at MoneyScale
func GreaterThan(a, b decimal.Decimal) bool {
	return Compare(a, b) > 0
}

// GreaterThanOrEqual reports whether a >= b at MoneyScale
func GreaterThanOrEqual(a, b decimal.Decimal) bool {
	return Compare(a, b) >= 0
}

// LessThan reports whether a < b at MoneyScale
func LessThan(a, b decimal.Decimal) bool {
	return Compare(a, b) < 0
}

// IsZero reports whether d rounds to zero
func IsZero(d decimal.Decimal) bool {
	return Round(d).IsZero()
}

// IsPositive reports whether d is strictly positive at MoneyScale
func IsPositive(d decimal.Decimal) bool {
	return Round(d).IsPositive()
}

// Sum adds all values with full precision
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// ParseAmount parses a decimal string into an amount
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount string: %w", err)
	}
	return d, nil
}

// Money is a value object representing a monetary amount in the system's
// single currency. It is immutable: all operations return new values.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyFromInt creates Money from whole units
func NewMoneyFromInt(amount int64) Money {
	return Money{amount: decimal.NewFromInt(amount)}
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string) (Money, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: d}, nil
}

// Zero returns zero money
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the underlying decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero reports whether the amount rounds to zero
func (m Money) IsZero() bool {
	return IsZero(m.amount)
}

// IsNegative reports whether the amount is negative at MoneyScale
func (m Money) IsNegative() bool {
	return Round(m.amount).IsNegative()
}

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Mul returns m * factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// MulInt returns m * factor
func (m Money) MulInt(factor int64) Money {
	return m.Mul(decimal.NewFromInt(factor))
}

// Percent returns m adjusted by pct percent, e.g. Percent(10) is m * 1.10
func (m Money) Percent(pct decimal.Decimal) Money {
	factor := decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
	return m.Mul(factor)
}

// Rounded returns m rounded to MoneyScale
func (m Money) Rounded() Money {
	return Money{amount: Round(m.amount)}
}

// Equals compares two amounts at MoneyScale
func (m Money) Equals(other Money) bool {
	return Equal(m.amount, other.amount)
}

// GreaterThanOrEqual compares two amounts at MoneyScale
func (m Money) GreaterThanOrEqual(other Money) bool {
	return GreaterThanOrEqual(m.amount, other.amount)
}

// String returns the amount with exactly MoneyScale decimals
func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale)
}

// MarshalJSON encodes the amount as a fixed-point string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or number
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid money value: %w", err)
		}
		s = n.String()
	}
	d, err := ParseAmount(s)
	if err != nil {
		return err
	}
	m.amount = d
	return nil
}

package money

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits of every serialized amount.
const Places = 2

// Tolerance is the only tolerance applied when comparing amounts.
var Tolerance = Money{d: decimal.New(1, -Places)}

// Zero is the zero amount.
var Zero = Money{}

// Money is an exact decimal amount. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// New wraps a decimal.
func New(d decimal.Decimal) Money {
	return Money{d: d}
}

// FromInt returns a whole amount.
func FromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// FromCents returns units/100.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -Places)}
}

// Parse reads an amount written with at most two fractional digits.
func Parse(s string) (Money, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Zero, pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorInvalidAmount, "amount", "amount is required")
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return Zero, pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorInvalidAmount, "amount", "amount is not a number")
	}

	if d.Exponent() < -Places && !d.Equal(d.Truncate(Places)) {
		return Zero, pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorInvalidAmount, "amount", "amount has more than two decimal places")
	}

	return Money{d: d}, nil
}

// MustParse is Parse that panics on error. Intended for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return m
}

// Decimal returns the underlying decimal.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// Abs returns |m|.
func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

// Cmp compares m and o: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

// Equal reports exact equality.
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// GreaterThan reports m > o.
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

// GreaterThanOrEqual reports m >= o.
func (m Money) GreaterThanOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }

// LessThan reports m < o.
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

// IsZero reports m == 0.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsNegative reports m < 0.
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// IsPositive reports m > 0.
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.d.GreaterThanOrEqual(b.d) {
		return a
	}

	return b
}

// Sum adds every amount.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}

	return total
}

// WithinTolerance reports |m - o| <= Tolerance.
func (m Money) WithinTolerance(o Money) bool {
	return m.d.Sub(o.d).Abs().LessThanOrEqual(Tolerance.d)
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(Places)
}

// MarshalJSON encodes the amount as a quoted two-digit decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a quoted decimal or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Zero

		return nil
	}

	text := string(data)

	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return pawn.WrapError(pawn.KindInputValidation, pawn.ErrorInvalidAmount, "amount is not a string", err)
		}
	}

	parsed, err := Parse(text)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

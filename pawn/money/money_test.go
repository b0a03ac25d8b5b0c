package money

import (
	"encoding/json"
	"testing"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "150", want: "150.00"},
		{name: "two places", input: "80.50", want: "80.50"},
		{name: "one place", input: "0.5", want: "0.50"},
		{name: "negative", input: "-12.30", want: "-12.30"},
		{name: "trailing zeros beyond two places", input: "1.2500", want: "1.25"},
		{name: "surrounding spaces", input: " 7 ", want: "7.00"},
		{name: "three places", input: "1.005", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, pawn.ErrInputValidation)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	a := MustParse("100.10")
	b := MustParse("40.05")

	assert.Equal(t, "140.15", a.Add(b).String())
	assert.Equal(t, "60.05", a.Sub(b).String())
	assert.Equal(t, "-60.05", b.Sub(a).String())
	assert.Equal(t, "60.05", b.Sub(a).Abs().String())
	assert.Equal(t, "-100.10", a.Neg().String())
	assert.Equal(t, a, Max(a, b))
	assert.Equal(t, a, Max(b, a))
	assert.Equal(t, "140.15", Sum(a, b).String())
	assert.True(t, Sum().IsZero())
	assert.Equal(t, "1.23", FromCents(123).String())
	assert.Equal(t, "5000.00", FromInt(5000).String())
}

func TestWithinTolerance(t *testing.T) {
	t.Parallel()

	base := MustParse("10.00")

	assert.True(t, base.WithinTolerance(MustParse("10.01")))
	assert.True(t, base.WithinTolerance(MustParse("9.99")))
	assert.False(t, base.WithinTolerance(MustParse("10.02")))
	assert.Equal(t, "0.01", Tolerance.String())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Amount Money `json:"amount"`
	}

	out, err := json.Marshal(payload{Amount: FromInt(320)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"320.00"}`, string(out))

	var p payload

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.5"}`), &p))
	assert.Equal(t, "12.50", p.Amount.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount":7.25}`), &p))
	assert.Equal(t, "7.25", p.Amount.String())

	require.NoError(t, json.Unmarshal([]byte(`{"amount":null}`), &p))
	assert.True(t, p.Amount.IsZero())

	require.Error(t, json.Unmarshal([]byte(`{"amount":"1.234"}`), &p))
}

func TestZeroValue(t *testing.T) {
	t.Parallel()

	var m Money

	assert.Equal(t, "0.00", m.String())
	assert.True(t, m.IsZero())
	assert.False(t, m.IsNegative())
	assert.False(t, m.IsPositive())
}

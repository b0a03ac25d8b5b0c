package ticket

import (
	"encoding/json"
	"testing"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Customer{ID: "c-1", Name: "Alice Tan", NationalID: "S1234567A"}
	bob   = Customer{ID: "c-2", Name: "Bob Lim", NationalID: "T7654321B"}
)

func op(t *testing.T, number string, kind Kind, amount string, c Customer) Operation {
	t.Helper()

	o, err := NewOperation(number, kind, money.MustParse(amount), c)
	require.NoError(t, err)

	return o
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		valid bool
	}{
		{"B/0125/1234", true},
		{"S/0125/0099", true},
		{"T/9999/0000", true},
		{"X/0125/1234", false},
		{"b/0125/1234", false},
		{"B/125/1234", false},
		{"B/0125/12345", false},
		{"B-0125-1234", false},
		{"B/0125/1234/0001", false},
		{" B/0125/1234", false},
		{"B/0125/1234\n", false},
		{"B/０１２５/1234", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			n, err := ParseNumber(tt.input)
			if !tt.valid {
				require.Error(t, err)

				var de pawn.DomainError
				require.ErrorAs(t, err, &de)
				assert.Equal(t, pawn.ErrorInvalidTicketNumber, de.Code)
				assert.Equal(t, "ticketNumber", de.Field)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.input, n.String())
		})
	}
}

func TestNumberParts(t *testing.T) {
	t.Parallel()

	n := Number("B/0125/1234")

	assert.Equal(t, "B", n.Prefix())
	assert.Equal(t, "0125", n.Period())
	assert.Equal(t, "1234", n.Sequence())
	assert.Empty(t, Number("").Prefix())
	assert.Empty(t, Number("B/1").Period())
}

func TestParseNationalID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		valid bool
	}{
		{"S1234567A", true},
		{"T0000000Z", true},
		{"F7654321K", true},
		{"G1111111X", true},
		{"A1234567A", false},
		{"S123456A", false},
		{"S1234567a", false},
		{"S12345678", false},
		{"s1234567A", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			_, err := ParseNationalID(tt.input)
			if tt.valid {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, pawn.ErrInputValidation)
		})
	}
}

func TestNationalID_Masked(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "S****567A", NationalID("S1234567A").Masked())
	assert.Equal(t, "****", NationalID("bad").Masked())
}

func TestNewOperation_ReportsEveryField(t *testing.T) {
	t.Parallel()

	_, err := NewOperation("nope", Kind("LOST"), money.Zero, Customer{NationalID: "x"})
	require.Error(t, err)

	var de pawn.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"ticketNumber", "kind", "amount", "customer.id", "customer.nationalId"}, de.Fields())
}

func TestBatch_AddRejectsDuplicates(t *testing.T) {
	t.Parallel()

	b, err := NewBatch(op(t, "B/0125/1234", KindRenew, "24", alice))
	require.NoError(t, err)

	same, err := b.Add(op(t, "B/0125/1234", KindRedeem, "100", alice))
	require.Error(t, err)

	var de pawn.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, pawn.ErrorDuplicateTicket, de.Code)
	assert.Equal(t, 1, same.Count())
}

func TestBatch_AddRejectsMalformedNumber(t *testing.T) {
	t.Parallel()

	_, err := Batch{}.Add(Operation{TicketNumber: "Z/1/2", Kind: KindRenew, Amount: money.FromInt(1)})
	assert.ErrorIs(t, err, pawn.ErrInputValidation)
}

func TestBatch_IsImmutable(t *testing.T) {
	t.Parallel()

	base, err := NewBatch(op(t, "B/0125/1234", KindRenew, "24", alice))
	require.NoError(t, err)

	bigger, err := base.Add(op(t, "S/0125/0099", KindRedeem, "1308", bob))
	require.NoError(t, err)

	assert.Equal(t, 1, base.Count())
	assert.Equal(t, 2, bigger.Count())

	ops := bigger.Operations()
	ops[0].Amount = money.FromInt(999999)

	assert.Equal(t, "24.00", bigger.TotalRenewal().String())

	smaller, removed := bigger.Remove("B/0125/1234")
	assert.True(t, removed)
	assert.Equal(t, 1, smaller.Count())
	assert.Equal(t, 2, bigger.Count())

	_, removed = smaller.Remove("B/0125/1234")
	assert.False(t, removed)
}

func TestBatch_Totals(t *testing.T) {
	t.Parallel()

	b, err := NewBatch(
		op(t, "B/0125/0001", KindRenew, "24.00", alice),
		op(t, "S/0125/0002", KindRedeem, "1308.00", alice),
		op(t, "T/0125/0003", KindRenew, "80.50", bob),
		op(t, "B/0125/0004", KindRedeem, "500.25", bob),
	)
	require.NoError(t, err)

	assert.Equal(t, "104.50", b.TotalRenewal().String())
	assert.Equal(t, "1808.25", b.TotalRedemption().String())
	assert.Equal(t, "-1703.75", b.NetAmount().String())
	assert.Equal(t, 4, b.Count())
	assert.True(t, b.HasRedemption())
	assert.Equal(t, []Customer{alice, bob}, b.RedemptionCustomers())
}

func TestBatch_NetAmountIsOrderIndependent(t *testing.T) {
	t.Parallel()

	ops := []Operation{
		op(t, "B/0125/0001", KindRenew, "24.00", alice),
		op(t, "S/0125/0002", KindRedeem, "1308.00", alice),
		op(t, "T/0125/0003", KindRenew, "80.50", bob),
		op(t, "B/0125/0004", KindRedeem, "0.01", bob),
	}

	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}

	var want money.Money

	for i, order := range orders {
		var permuted []Operation
		for _, idx := range order {
			permuted = append(permuted, ops[idx])
		}

		b, err := NewBatch(permuted...)
		require.NoError(t, err)

		got := b.NetAmount()
		assert.True(t, got.Equal(b.TotalRenewal().Sub(b.TotalRedemption())))

		if i == 0 {
			want = got

			continue
		}

		assert.True(t, want.Equal(got), "order %v: want %s got %s", order, want, got)
	}
}

func TestBatch_EmptyTotals(t *testing.T) {
	t.Parallel()

	var b Batch

	assert.True(t, b.IsEmpty())
	assert.Equal(t, "0.00", b.NetAmount().String())
	assert.False(t, b.HasRedemption())
	assert.Empty(t, b.RedemptionCustomers())
}

func TestBatch_JSON(t *testing.T) {
	t.Parallel()

	b, err := NewBatch(
		op(t, "B/0125/1234", KindRenew, "24", alice),
		op(t, "S/0125/0099", KindRedeem, "10", alice),
	)
	require.NoError(t, err)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"netAmount":"14.00"`)
	assert.Contains(t, string(data), `"ticketCount":2`)

	tampered := []byte(`{"operations":[{"ticketNumber":"B/0125/1234","kind":"RENEW","amount":"24.00","customer":{"id":"c-1"}}],"netAmount":"1.00"}`)

	var decoded Batch
	require.NoError(t, json.Unmarshal(tampered, &decoded))
	assert.Equal(t, "24.00", decoded.NetAmount().String())
}

package reconcile

import (
	"testing"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/money"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var customer = ticket.Customer{ID: "c-1", Name: "Alice Tan", NationalID: "S1234567A"}

func batchOf(t *testing.T, entries ...any) ticket.Batch {
	t.Helper()

	var ops []ticket.Operation

	for i := 0; i < len(entries); i += 3 {
		o, err := ticket.NewOperation(entries[i].(string), entries[i+1].(ticket.Kind), money.MustParse(entries[i+2].(string)), customer)
		require.NoError(t, err)

		ops = append(ops, o)
	}

	b, err := ticket.NewBatch(ops...)
	require.NoError(t, err)

	return b
}

func split(cash, digital, ref string) Split {
	return Split{Cash: money.MustParse(cash), Digital: money.MustParse(digital), DigitalReference: ref}
}

func TestReconcile(t *testing.T) {
	t.Parallel()

	renewal := batchOf(t, "B/0125/1234", ticket.KindRenew, "24.00")
	redemption := batchOf(t, "S/0125/0099", ticket.KindRedeem, "1308.00")
	combined := batchOf(t,
		"B/0125/0001", ticket.KindRenew, "100.00",
		"S/0125/0002", ticket.KindRedeem, "40.00",
	)

	tests := []struct {
		name      string
		batch     ticket.Batch
		split     Split
		due       string
		change    string
		shortfall string
		enough    bool
		direction Direction
	}{
		{name: "exact cash", batch: renewal, split: split("24", "0", ""), due: "24.00", change: "0.00", shortfall: "0.00", enough: true, direction: DirectionCollect},
		{name: "overpaid", batch: renewal, split: split("50", "0", ""), due: "24.00", change: "26.00", shortfall: "0.00", enough: true, direction: DirectionCollect},
		{name: "one cent short is tolerated", batch: renewal, split: split("23.99", "0", ""), due: "24.00", change: "0.00", shortfall: "0.01", enough: true, direction: DirectionCollect},
		{name: "two cents short", batch: renewal, split: split("23.98", "0", ""), due: "24.00", change: "0.00", shortfall: "0.02", enough: false, direction: DirectionCollect},
		{name: "mixed tender", batch: renewal, split: split("4", "20", "PN-1"), due: "24.00", change: "0.00", shortfall: "0.00", enough: true, direction: DirectionCollect},
		{name: "payout uses absolute net", batch: redemption, split: split("1308", "0", ""), due: "1308.00", change: "0.00", shortfall: "0.00", enough: true, direction: DirectionPayOut},
		{name: "combined nets to remainder", batch: combined, split: split("60", "0", ""), due: "60.00", change: "0.00", shortfall: "0.00", enough: true, direction: DirectionCollect},
		{name: "empty batch", batch: ticket.Batch{}, split: split("0", "0", ""), due: "0.00", change: "0.00", shortfall: "0.00", enough: true, direction: DirectionCollect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Reconcile(tt.batch, tt.split)

			assert.Equal(t, tt.due, got.Due.String())
			assert.Equal(t, tt.change, got.Change.String())
			assert.Equal(t, tt.shortfall, got.Shortfall.String())
			assert.Equal(t, tt.enough, got.IsSufficient)
			assert.Equal(t, tt.direction, got.Direction)
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	t.Parallel()

	b := batchOf(t, "B/0125/1234", ticket.KindRenew, "24.00", "S/0125/0099", ticket.KindRedeem, "1308.00")
	s := split("1000", "284", "PN-7")

	first := Reconcile(b, s)
	second := Reconcile(b, s)

	assert.Equal(t, first.Due.String(), second.Due.String())
	assert.Equal(t, first.Change.String(), second.Change.String())
	assert.Equal(t, first.Shortfall.String(), second.Shortfall.String())
	assert.Equal(t, first.IsSufficient, second.IsSufficient)
	assert.Equal(t, first.Direction, second.Direction)
	assert.Equal(t, "24.00", b.TotalRenewal().String())
}

func TestReconcile_ChangeAndSufficiencyFormulas(t *testing.T) {
	t.Parallel()

	b := batchOf(t, "B/0125/1234", ticket.KindRenew, "100.00")

	for cents := int64(9900); cents <= 10100; cents++ {
		collected := money.FromCents(cents)
		got := Reconcile(b, Split{Cash: collected})

		due := b.NetAmount().Abs()
		wantChange := money.Max(money.Zero, collected.Sub(due))
		wantEnough := collected.GreaterThanOrEqual(due.Sub(money.Tolerance))

		require.True(t, wantChange.Equal(got.Change), "collected %s", collected)
		require.Equal(t, wantEnough, got.IsSufficient, "collected %s", collected)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	b := batchOf(t, "B/0125/1234", ticket.KindRenew, "24.00")

	tests := []struct {
		name   string
		split  Split
		kind   pawn.Kind
		code   pawn.ErrorCode
		fields []string
	}{
		{name: "settled", split: split("24", "0", "")},
		{name: "settled with reference", split: split("4", "20", "PN-1")},
		{name: "settled within tolerance", split: split("24.01", "0", "")},
		{name: "short within tolerance", split: split("23.99", "0", "")},
		{name: "insufficient", split: split("10", "0", ""), kind: pawn.KindReconciliation, code: pawn.ErrorInsufficientPayment, fields: []string{"payment.collected"}},
		{name: "overpaid in cash", split: split("100", "0", ""), kind: pawn.KindReconciliation, code: pawn.ErrorPaymentMismatch, fields: []string{"payment.collected"}},
		{name: "overpaid beyond tolerance", split: split("24.02", "0", ""), kind: pawn.KindReconciliation, code: pawn.ErrorPaymentMismatch, fields: []string{"payment.collected"}},
		{name: "overpaid across split", split: split("10", "20", "PN-1"), kind: pawn.KindReconciliation, code: pawn.ErrorPaymentMismatch, fields: []string{"payment.collected"}},
		{name: "missing reference", split: split("0", "24", " "), kind: pawn.KindInputValidation, fields: []string{"payment.digitalReference"}},
		{name: "negative amounts", split: Split{Cash: money.MustParse("-1"), Digital: money.MustParse("-2")}, kind: pawn.KindInputValidation, fields: []string{"payment.cash", "payment.digital"}},
		{name: "digital exceeds due", split: split("0", "30", "PN-1"), kind: pawn.KindReconciliation, code: pawn.ErrorDigitalExceedsDue, fields: []string{"payment.digital"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(b, tt.split)
			if tt.fields == nil {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)

			var de pawn.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.fields, de.Fields())

			if tt.code != "" {
				assert.Equal(t, tt.code, de.Code)
			}
		})
	}
}

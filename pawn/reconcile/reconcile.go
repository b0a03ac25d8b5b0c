package reconcile

import (
	"strings"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/money"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
)

// Direction tells which party hands over the amount due.
type Direction string

const (
	// DirectionCollect means the customer pays the shop (net >= 0).
	DirectionCollect Direction = "COLLECT"
	// DirectionPayOut means the shop pays the customer (net < 0).
	DirectionPayOut Direction = "PAY_OUT"
)

// Split is how the amount due is tendered.
type Split struct {
	Cash             money.Money `json:"cash"`
	Digital          money.Money `json:"digital"`
	DigitalReference string      `json:"digitalReference,omitempty"`
}

// Collected is Cash + Digital.
func (s Split) Collected() money.Money {
	return s.Cash.Add(s.Digital)
}

// Result is the outcome of reconciling a batch against a split.
type Result struct {
	Net          money.Money `json:"net"`
	Due          money.Money `json:"due"`
	Collected    money.Money `json:"collected"`
	Change       money.Money `json:"change"`
	Shortfall    money.Money `json:"shortfall"`
	IsSufficient bool        `json:"isSufficient"`
	Direction    Direction   `json:"direction"`
}

// Reconcile computes due = |net|, change = max(0, collected - due) and
// sufficiency as collected >= due - money.Tolerance.
func Reconcile(batch ticket.Batch, split Split) Result {
	net := batch.NetAmount()
	due := net.Abs()
	collected := split.Collected()

	direction := DirectionCollect
	if net.IsNegative() {
		direction = DirectionPayOut
	}

	return Result{
		Net:          net,
		Due:          due,
		Collected:    collected,
		Change:       money.Max(money.Zero, collected.Sub(due)),
		Shortfall:    money.Max(money.Zero, due.Sub(collected)),
		IsSufficient: collected.GreaterThanOrEqual(due.Sub(money.Tolerance)),
		Direction:    direction,
	}
}

// Validate reports every reason split cannot settle batch. A batch settles
// only when the amount collected matches the amount due within
// money.Tolerance; there is no partial settlement and no overpayment. A
// digital portion above the amount due is reported on its own field.
//
// The error kind is Reconciliation when every violation concerns the amounts
// tendered, and InputValidation when any field is malformed or missing.
func Validate(batch ticket.Batch, split Split) error {
	var (
		v          pawn.Violations
		inputError bool
	)

	if split.Cash.IsNegative() {
		inputError = true

		v.Add(pawn.ErrorInvalidAmount, "payment.cash", "cash amount cannot be negative")
	}

	if split.Digital.IsNegative() {
		inputError = true

		v.Add(pawn.ErrorInvalidAmount, "payment.digital", "digital amount cannot be negative")
	}

	if split.Digital.IsPositive() && strings.TrimSpace(split.DigitalReference) == "" {
		inputError = true

		v.Add(pawn.ErrorMissingDigitalReference, "payment.digitalReference",
			"a reference is required when a digital amount is present")
	}

	if v.Empty() {
		result := Reconcile(batch, split)

		if !result.IsSufficient {
			v.Add(pawn.ErrorInsufficientPayment, "payment.collected",
				"collected "+result.Collected.String()+" does not cover "+result.Due.String()+" due")
		}

		switch {
		case split.Digital.GreaterThan(result.Due):
			v.Add(pawn.ErrorDigitalExceedsDue, "payment.digital",
				"digital amount exceeds the amount due")
		case result.IsSufficient && !result.Collected.WithinTolerance(result.Due):
			v.Add(pawn.ErrorPaymentMismatch, "payment.collected",
				"collected "+result.Collected.String()+" exceeds "+result.Due.String()+" due")
		}
	}

	kind := pawn.KindReconciliation
	if inputError {
		kind = pawn.KindInputValidation
	}

	return v.Err(kind, "payment does not settle the batch")
}

package ticket

import (
	"encoding/json"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/money"
)

// Batch is an ordered set of operations with unique ticket numbers. The zero
// value is an empty batch.
type Batch struct {
	ops []Operation
}

// NewBatch builds a batch from ops in order, rejecting duplicates.
func NewBatch(ops ...Operation) (Batch, error) {
	b := Batch{}

	for _, op := range ops {
		next, err := b.Add(op)
		if err != nil {
			return Batch{}, err
		}

		b = next
	}

	return b, nil
}

// Add returns a new batch with op appended. The receiver is not modified.
func (b Batch) Add(op Operation) (Batch, error) {
	if !IsValidNumber(string(op.TicketNumber)) {
		return b, pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorInvalidTicketNumber, "ticketNumber",
			"ticket number must look like B/0125/1234 (prefix B, S or T)")
	}

	if b.Contains(op.TicketNumber) {
		return b, pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorDuplicateTicket, "ticketNumber",
			"ticket "+op.TicketNumber.String()+" is already in the batch")
	}

	ops := make([]Operation, len(b.ops), len(b.ops)+1)
	copy(ops, b.ops)

	return Batch{ops: append(ops, op)}, nil
}

// Remove returns a new batch without the operation for n, and whether it was
// present.
func (b Batch) Remove(n Number) (Batch, bool) {
	for i, op := range b.ops {
		if op.TicketNumber != n {
			continue
		}

		ops := make([]Operation, 0, len(b.ops)-1)
		ops = append(ops, b.ops[:i]...)
		ops = append(ops, b.ops[i+1:]...)

		return Batch{ops: ops}, true
	}

	return b, false
}

// Contains reports whether n is already in the batch.
func (b Batch) Contains(n Number) bool {
	for _, op := range b.ops {
		if op.TicketNumber == n {
			return true
		}
	}

	return false
}

// Operations returns a copy of the operations in insertion order.
func (b Batch) Operations() []Operation {
	out := make([]Operation, len(b.ops))
	copy(out, b.ops)

	return out
}

// Count is the number of tickets in the batch.
func (b Batch) Count() int { return len(b.ops) }

// IsEmpty reports whether the batch has no operations.
func (b Batch) IsEmpty() bool { return len(b.ops) == 0 }

// TotalRenewal sums every renewal amount.
func (b Batch) TotalRenewal() money.Money { return b.total(KindRenew) }

// TotalRedemption sums every redemption amount.
func (b Batch) TotalRedemption() money.Money { return b.total(KindRedeem) }

// NetAmount is TotalRenewal - TotalRedemption. Positive means the customer
// owes the shop.
func (b Batch) NetAmount() money.Money {
	return b.TotalRenewal().Sub(b.TotalRedemption())
}

// HasRedemption reports whether any operation is a redemption.
func (b Batch) HasRedemption() bool {
	for _, op := range b.ops {
		if op.Kind == KindRedeem {
			return true
		}
	}

	return false
}

// RedemptionCustomers returns each distinct customer referenced by a
// redemption, in first-seen order.
func (b Batch) RedemptionCustomers() []Customer {
	seen := make(map[string]struct{})

	var out []Customer

	for _, op := range b.ops {
		if op.Kind != KindRedeem {
			continue
		}

		key := op.Customer.ID + "|" + string(op.Customer.NationalID)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, op.Customer)
	}

	return out
}

func (b Batch) total(kind Kind) money.Money {
	total := money.Zero

	for _, op := range b.ops {
		if op.Kind == kind {
			total = total.Add(op.Amount)
		}
	}

	return total
}

type batchJSON struct {
	Operations      []Operation `json:"operations"`
	TotalRenewal    money.Money `json:"totalRenewal"`
	TotalRedemption money.Money `json:"totalRedemption"`
	NetAmount       money.Money `json:"netAmount"`
	TicketCount     int         `json:"ticketCount"`
}

// MarshalJSON encodes the operations together with the derived totals.
func (b Batch) MarshalJSON() ([]byte, error) {
	return json.Marshal(batchJSON{
		Operations:      b.Operations(),
		TotalRenewal:    b.TotalRenewal(),
		TotalRedemption: b.TotalRedemption(),
		NetAmount:       b.NetAmount(),
		TicketCount:     b.Count(),
	})
}

// UnmarshalJSON rebuilds the batch from its operations. Totals in the input
// are ignored and recomputed.
func (b *Batch) UnmarshalJSON(data []byte) error {
	var raw batchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	built, err := NewBatch(raw.Operations...)
	if err != nil {
		return err
	}

	*b = built

	return nil
}

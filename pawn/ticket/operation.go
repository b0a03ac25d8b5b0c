package ticket

import (
	"strings"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/money"
)

// Kind is the operation performed on a ticket.
type Kind string

const (
	// KindRenew collects the renewal fee; the pledge stays with the shop.
	KindRenew Kind = "RENEW"
	// KindRedeem settles the loan and releases the pledge.
	KindRedeem Kind = "REDEEM"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindRenew || k == KindRedeem
}

// Customer is the registered owner of a ticket.
type Customer struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	NationalID NationalID `json:"nationalId"`
}

// Operation is one ticket's contribution to a batch.
type Operation struct {
	TicketNumber Number      `json:"ticketNumber"`
	Kind         Kind        `json:"kind"`
	Amount       money.Money `json:"amount"`
	Customer     Customer    `json:"customer"`
}

// NewOperation validates every field and returns the operation. All invalid
// fields are reported together.
func NewOperation(number string, kind Kind, amount money.Money, customer Customer) (Operation, error) {
	var v pawn.Violations

	n, err := ParseNumber(number)
	v.Merge("ticketNumber", err)

	if !kind.IsValid() {
		v.Add(pawn.ErrorMissingField, "kind", "kind must be RENEW or REDEEM")
	}

	if !amount.IsPositive() {
		v.Add(pawn.ErrorInvalidAmount, "amount", "amount must be greater than zero")
	}

	if strings.TrimSpace(customer.ID) == "" {
		v.Add(pawn.ErrorMissingField, "customer.id", "customer is required")
	}

	if !IsValidNationalID(string(customer.NationalID)) {
		v.Add(pawn.ErrorInvalidNationalID, "customer.nationalId", "customer national ID is malformed")
	}

	if err := v.Err(pawn.KindInputValidation, "invalid ticket operation"); err != nil {
		return Operation{}, err
	}

	return Operation{TicketNumber: n, Kind: kind, Amount: amount, Customer: customer}, nil
}

package backend

import (
	"context"
	"errors"
	"time"

	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/LerianStudio/lib-pawn/pawn/identity"
	"github.com/LerianStudio/lib-pawn/pawn/money"
	"github.com/LerianStudio/lib-pawn/pawn/reconcile"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
)

var (
	// ErrTicketNotFound is returned by LookupTicket for an unknown number.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrRejected is returned when the backend refuses a request on its
	// merits: a wrong PIN, a revoked refresh token, a batch it will not book.
	ErrRejected = errors.New("rejected")
)

// TicketStatus is the lifecycle status of a pawn ticket.
type TicketStatus string

const (
	TicketActive    TicketStatus = "ACTIVE"
	TicketRedeemed  TicketStatus = "REDEEMED"
	TicketForfeited TicketStatus = "FORFEITED"
	TicketLost      TicketStatus = "LOST"
)

// TicketRecord is a ticket as held by the system of record.
type TicketRecord struct {
	Number           ticket.Number   `json:"number"`
	Status           TicketStatus    `json:"status"`
	Customer         ticket.Customer `json:"customer"`
	Principal        money.Money     `json:"principal"`
	Interest         money.Money     `json:"interest"`
	RenewalFee       money.Money     `json:"renewalFee"`
	RedemptionAmount money.Money     `json:"redemptionAmount"`
	DueDate          time.Time       `json:"dueDate"`
}

// AmountFor returns what kind costs on this ticket.
func (r TicketRecord) AmountFor(kind ticket.Kind) money.Money {
	if kind == ticket.KindRedeem {
		return r.RedemptionAmount
	}

	return r.RenewalFee
}

// Authentication is a successful staff sign-in.
type Authentication struct {
	Credential   authz.Credential `json:"credential"`
	Token        string           `json:"token"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresIn    time.Duration    `json:"expiresIn"`
}

// RefreshResult is a renewed session token. ExpiresIn may be zero, in which
// case the expiry is read from the token itself.
type RefreshResult struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	ExpiresIn    time.Duration `json:"expiresIn"`
}

// Confirmations are the operator's explicit Review checkboxes.
type Confirmations struct {
	DocumentsVerified bool `json:"documentsVerified"`
	ComplianceChecked bool `json:"complianceChecked"`
	FinalConfirmation bool `json:"finalConfirmation"`
}

// All reports whether every confirmation was given.
func (c Confirmations) All() bool {
	return c.DocumentsVerified && c.ComplianceChecked && c.FinalConfirmation
}

// CommitRequest is everything the backend needs to book a batch.
type CommitRequest struct {
	BatchID        string                  `json:"batchId"`
	Batch          ticket.Batch            `json:"batch"`
	Payment        reconcile.Split         `json:"payment"`
	Reconciliation reconcile.Result        `json:"reconciliation"`
	Classification identity.Classification `json:"classification"`
	Redeemer       *identity.Redeemer      `json:"redeemer,omitempty"`
	Requirement    authz.Requirement       `json:"requirement"`
	Approvals      authz.Approvals         `json:"approvals"`
	Confirmations  Confirmations           `json:"confirmations"`
}

// TransactionID identifies a committed batch.
type TransactionID string

// TicketLookup is consumed by the Selection stage.
type TicketLookup interface {
	LookupTicket(ctx context.Context, number ticket.Number) (TicketRecord, error)
}

// StaffAuthenticator is consumed by session creation and by the Review stage.
type StaffAuthenticator interface {
	AuthenticateStaff(ctx context.Context, staffID, pin string) (Authentication, error)
}

// SessionRefresher is consumed by the session manager.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (RefreshResult, error)
}

// Committer books a fully authorized batch.
type Committer interface {
	CommitTransaction(ctx context.Context, req CommitRequest) (TransactionID, error)
}

// Backend is the full boundary.
type Backend interface {
	TicketLookup
	StaffAuthenticator
	SessionRefresher
	Committer
}

// IsDomainRejection reports whether err is an answer from the backend rather
// than a failure to reach it.
func IsDomainRejection(err error) bool {
	return errors.Is(err, ErrRejected) || errors.Is(err, ErrTicketNotFound)
}

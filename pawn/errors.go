package pawn

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a DomainError by how the console must react to it.
type Kind string

const (
	// KindInputValidation covers malformed ticket numbers, IDs and amounts.
	// Recoverable locally and surfaced per field.
	KindInputValidation Kind = "INPUT_VALIDATION"
	// KindReconciliation covers insufficient or mismatched payment. Blocks the
	// Payment stage only.
	KindReconciliation Kind = "RECONCILIATION"
	// KindAuthorizationDenied covers rejected credentials, duplicate staff and
	// missing manager justification. Blocks the Review stage only.
	KindAuthorizationDenied Kind = "AUTHORIZATION_DENIED"
	// KindSessionExpired is fatal to the current batch, not to the application.
	KindSessionExpired Kind = "SESSION_EXPIRED"
	// KindCommitFailure means the backend rejected a finalized batch. Retryable.
	KindCommitFailure Kind = "COMMIT_FAILURE"
)

// Sentinel errors matching each Kind through errors.Is.
var (
	ErrInputValidation     = errors.New("input validation failed")
	ErrReconciliation      = errors.New("payment does not reconcile")
	ErrAuthorizationDenied = errors.New("authorization denied")
	ErrSessionExpired      = errors.New("session expired")
	ErrCommitFailure       = errors.New("commit failed")
)

// ErrBusy is wrapped by every error returned while an awaited call for the
// same session or batch is still in flight.
var ErrBusy = errors.New("another operation is in progress")

// Title returns a short human-readable heading for the kind.
func (k Kind) Title() string {
	switch k {
	case KindInputValidation:
		return "Invalid Input"
	case KindReconciliation:
		return "Payment Not Reconciled"
	case KindAuthorizationDenied:
		return "Authorization Denied"
	case KindSessionExpired:
		return "Session Expired"
	case KindCommitFailure:
		return "Transaction Not Committed"
	default:
		return "Error"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindInputValidation:
		return ErrInputValidation
	case KindReconciliation:
		return ErrReconciliation
	case KindAuthorizationDenied:
		return ErrAuthorizationDenied
	case KindSessionExpired:
		return ErrSessionExpired
	case KindCommitFailure:
		return ErrCommitFailure
	default:
		return nil
	}
}

// ErrorCode is a stable code identifying the exact rule that failed.
type ErrorCode string

const (
	ErrorInvalidTicketNumber ErrorCode = "0101"
	ErrorDuplicateTicket     ErrorCode = "0102"
	ErrorTicketNotFound      ErrorCode = "0103"
	ErrorTicketNotEligible   ErrorCode = "0104"
	ErrorInvalidNationalID   ErrorCode = "0105"
	ErrorInvalidAmount       ErrorCode = "0106"
	ErrorMissingField        ErrorCode = "0107"
	ErrorEmptyBatch          ErrorCode = "0108"
	ErrorUnverifiedCustomer  ErrorCode = "0109"
	ErrorMissingConfirmation ErrorCode = "0110"

	ErrorInsufficientPayment     ErrorCode = "0201"
	ErrorMissingDigitalReference ErrorCode = "0202"
	ErrorDigitalExceedsDue       ErrorCode = "0203"
	ErrorPaymentMismatch         ErrorCode = "0204"

	ErrorCredentialRejected    ErrorCode = "0301"
	ErrorDuplicateStaff        ErrorCode = "0302"
	ErrorMissingJustification  ErrorCode = "0303"
	ErrorMissingCredential     ErrorCode = "0304"
	ErrorInsufficientAuthority ErrorCode = "0305"

	ErrorSessionExpired    ErrorCode = "0401"
	ErrorSessionTerminated ErrorCode = "0402"
	ErrorNotAuthenticated  ErrorCode = "0403"
	ErrorRefreshRejected   ErrorCode = "0404"

	ErrorCommitRejected     ErrorCode = "0501"
	ErrorBackendUnavailable ErrorCode = "0502"

	ErrorInvalidStateTransition ErrorCode = "0901"
	ErrorBusy                   ErrorCode = "0902"
)

// FieldViolation is one unmet condition attached to a field.
type FieldViolation struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DomainError is the structured error returned by every lib-pawn operation.
// Details lists every unmet field when a guard reports more than one.
type DomainError struct {
	Kind    Kind             `json:"kind"`
	Code    ErrorCode        `json:"code"`
	Field   string           `json:"field,omitempty"`
	Message string           `json:"message"`
	Details []FieldViolation `json:"details,omitempty"`
	Err     error            `json:"-"`
}

// Error returns the formatted domain error string.
func (e DomainError) Error() string {
	var b strings.Builder

	if e.Field == "" {
		fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s (%s)", e.Code, e.Message, e.Field)
	}

	if len(e.Details) > 1 {
		fmt.Fprintf(&b, " [+%d more]", len(e.Details)-1)
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

// Unwrap exposes both the kind sentinel and the wrapped cause.
func (e DomainError) Unwrap() []error {
	errs := make([]error, 0, 2)

	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// Retryable reports whether the same request may succeed if submitted again
// without changing any input.
func (e DomainError) Retryable() bool {
	return e.Kind == KindCommitFailure
}

// Fields returns the names of every field with a violation.
func (e DomainError) Fields() []string {
	if len(e.Details) == 0 {
		if e.Field == "" {
			return nil
		}

		return []string{e.Field}
	}

	fields := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		fields = append(fields, d.Field)
	}

	return fields
}

// NewDomainError creates a domain error with kind, code, field, and message.
func NewDomainError(kind Kind, code ErrorCode, field, message string) error {
	return DomainError{Kind: kind, Code: code, Field: field, Message: message}
}

// WrapError creates a domain error that keeps cause reachable via errors.Is/As.
func WrapError(kind Kind, code ErrorCode, message string, cause error) error {
	return DomainError{Kind: kind, Code: code, Message: message, Err: cause}
}

// Busy reports that operation was refused because another one is in flight.
func Busy(operation string) error {
	return DomainError{
		Kind:    KindInputValidation,
		Code:    ErrorBusy,
		Message: operation + " refused while another operation is in progress",
		Err:     ErrBusy,
	}
}

// KindOf returns the Kind of err when it is (or wraps) a DomainError.
func KindOf(err error) (Kind, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}

	return "", false
}

// IsRetryable reports whether err is a retryable DomainError.
func IsRetryable(err error) bool {
	var de DomainError

	return errors.As(err, &de) && de.Retryable()
}

// Violations collects every unmet condition of a guard so the caller can
// report all of them at once instead of stopping at the first.
type Violations struct {
	items []FieldViolation
}

// Add records a violation.
func (v *Violations) Add(code ErrorCode, field, message string) {
	v.items = append(v.items, FieldViolation{Field: field, Code: code, Message: message})
}

// Merge appends the details of err when it is a DomainError, or records it
// under field otherwise. A nil err is ignored.
func (v *Violations) Merge(field string, err error) {
	if err == nil {
		return
	}

	var de DomainError
	if !errors.As(err, &de) {
		v.Add(ErrorMissingField, field, err.Error())

		return
	}

	if len(de.Details) > 0 {
		v.items = append(v.items, de.Details...)

		return
	}

	f := de.Field
	if f == "" {
		f = field
	}

	v.Add(de.Code, f, de.Message)
}

// Empty reports whether no violation was recorded.
func (v *Violations) Empty() bool {
	return len(v.items) == 0
}

// Len returns the number of recorded violations.
func (v *Violations) Len() int {
	return len(v.items)
}

// Err returns nil when empty, otherwise a DomainError of the given kind whose
// Details hold every violation in the order they were recorded.
func (v *Violations) Err(kind Kind, message string) error {
	if len(v.items) == 0 {
		return nil
	}

	details := make([]FieldViolation, len(v.items))
	copy(details, v.items)

	return DomainError{
		Kind:    kind,
		Code:    details[0].Code,
		Field:   details[0].Field,
		Message: message,
		Details: details,
	}
}

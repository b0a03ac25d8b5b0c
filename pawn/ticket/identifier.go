package ticket

import (
	"regexp"

	"github.com/LerianStudio/lib-pawn/pawn"
)

var (
	numberPattern     = regexp.MustCompile(`^[BST]/[0-9]{4}/[0-9]{4}$`)
	nationalIDPattern = regexp.MustCompile(`^[STFG][0-9]{7}[A-Z]$`)
)

// Number is a validated ticket identifier such as "B/0125/1234".
type Number string

// ParseNumber validates s as <Prefix>/<4 digits>/<4 digits> with Prefix one of
// B, S or T. The text must match exactly, surrounding whitespace included.
func ParseNumber(s string) (Number, error) {
	if !numberPattern.MatchString(s) {
		return "", pawn.NewDomainError(
			pawn.KindInputValidation,
			pawn.ErrorInvalidTicketNumber,
			"ticketNumber",
			"ticket number must look like B/0125/1234 (prefix B, S or T)",
		)
	}

	return Number(s), nil
}

// IsValidNumber reports whether s is a well-formed ticket number.
func IsValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// Prefix returns the one-letter prefix.
func (n Number) Prefix() string {
	if len(n) == 0 {
		return ""
	}

	return string(n[:1])
}

// Period returns the four-digit period group.
func (n Number) Period() string {
	if len(n) != 11 {
		return ""
	}

	return string(n[2:6])
}

// Sequence returns the four-digit sequence group.
func (n Number) Sequence() string {
	if len(n) != 11 {
		return ""
	}

	return string(n[7:])
}

func (n Number) String() string { return string(n) }

// NationalID is a validated national identity number such as "S1234567A".
type NationalID string

// ParseNationalID validates s as one of S, T, F or G followed by seven digits
// and one uppercase letter.
func ParseNationalID(s string) (NationalID, error) {
	if !nationalIDPattern.MatchString(s) {
		return "", pawn.NewDomainError(
			pawn.KindInputValidation,
			pawn.ErrorInvalidNationalID,
			"nationalId",
			"national ID must be S, T, F or G followed by 7 digits and a letter",
		)
	}

	return NationalID(s), nil
}

// IsValidNationalID reports whether s is a well-formed national ID.
func IsValidNationalID(s string) bool {
	return nationalIDPattern.MatchString(s)
}

// Masked hides the digits except the last three, e.g. "S****567A". Use it
// whenever a national ID is logged.
func (id NationalID) Masked() string {
	if len(id) != 9 {
		return "****"
	}

	return string(id[:1]) + "****" + string(id[5:])
}

func (id NationalID) String() string { return string(id) }

package identity

import (
	"strings"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
)

// EvidenceKind is one item of identity evidence a teller must record.
type EvidenceKind string

const (
	// EvidenceStandardID is the single ID check of the registered customer.
	EvidenceStandardID EvidenceKind = "STANDARD_ID"
	// EvidenceRedeemerIdentity is the full identity record of the redeemer.
	EvidenceRedeemerIdentity EvidenceKind = "REDEEMER_IDENTITY"
	// EvidenceRelationship is the redeemer's declared relationship to the customer.
	EvidenceRelationship EvidenceKind = "RELATIONSHIP"
	// EvidenceSecurityChallenge is the question and answer check.
	EvidenceSecurityChallenge EvidenceKind = "SECURITY_CHALLENGE"
)

// VerificationMethod is how the redeemer's identity document was checked.
type VerificationMethod string

const (
	MethodNationalIDCard VerificationMethod = "NATIONAL_ID_CARD"
	MethodPassport       VerificationMethod = "PASSPORT"
	MethodDrivingLicence VerificationMethod = "DRIVING_LICENCE"
)

// Redeemer is the person physically collecting a redeemed pledge.
type Redeemer struct {
	Name               string             `json:"name" validate:"required"`
	NationalID         ticket.NationalID  `json:"nationalId" validate:"required,nationalid"`
	Contact            string             `json:"contact" validate:"required"`
	Relationship       string             `json:"relationship" validate:"required"`
	VerificationMethod VerificationMethod `json:"verificationMethod" validate:"required,oneof=NATIONAL_ID_CARD PASSPORT DRIVING_LICENCE"`
	SecurityQuestion   string             `json:"securityQuestion" validate:"required"`
	SecurityAnswer     string             `json:"securityAnswer" validate:"required"`
}

// Classification is the outcome of comparing the redeemer with the batch.
type Classification struct {
	DifferentRedeemer bool           `json:"differentRedeemer"`
	RequiredEvidence  []EvidenceKind `json:"requiredEvidence"`
	// Mismatched lists the ids of redemption customers whose national ID
	// differs from the redeemer's.
	Mismatched []string `json:"mismatched,omitempty"`
}

// Requires reports whether kind is part of the required evidence.
func (c Classification) Requires(kind EvidenceKind) bool {
	for _, k := range c.RequiredEvidence {
		if k == kind {
			return true
		}
	}

	return false
}

// Classify compares redeemer against every customer referenced by a
// redemption in batch. Only a nil redeemer is taken to be the registered
// customer. A redeemer recorded without a national ID matches nobody and
// escalates to the full evidence set.
func Classify(batch ticket.Batch, redeemer *Redeemer) Classification {
	standard := Classification{RequiredEvidence: []EvidenceKind{EvidenceStandardID}}

	if !batch.HasRedemption() || redeemer == nil {
		return standard
	}

	nid := ticket.NationalID(strings.TrimSpace(string(redeemer.NationalID)))

	var mismatched []string

	for _, c := range batch.RedemptionCustomers() {
		if nid == "" || c.NationalID != nid {
			mismatched = append(mismatched, c.ID)
		}
	}

	if len(mismatched) == 0 {
		return standard
	}

	return Classification{
		DifferentRedeemer: true,
		RequiredEvidence: []EvidenceKind{
			EvidenceStandardID,
			EvidenceRedeemerIdentity,
			EvidenceRelationship,
			EvidenceSecurityChallenge,
		},
		Mismatched: mismatched,
	}
}

// VerifyEvidence checks that the redeemer record holds every field the
// classification requires and that the security challenge was answered.
// Every missing field is reported in one InputValidation error.
func VerifyEvidence(c Classification, redeemer *Redeemer, challengeAnswered bool) error {
	if !c.DifferentRedeemer {
		return nil
	}

	var v pawn.Violations

	if redeemer == nil {
		redeemer = &Redeemer{}
	}

	details, err := StructViolations("redeemer", redeemer)
	if err != nil {
		return pawn.WrapError(pawn.KindInputValidation, pawn.ErrorMissingField, "redeemer could not be validated", err)
	}

	for _, d := range details {
		v.Add(d.Code, d.Field, d.Message)
	}

	if c.Requires(EvidenceSecurityChallenge) && !challengeAnswered {
		v.Add(pawn.ErrorMissingField, "securityChallenge", "security challenge has not been answered")
	}

	return v.Err(pawn.KindInputValidation, "redeemer evidence is incomplete")
}

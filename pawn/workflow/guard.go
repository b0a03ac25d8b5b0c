package workflow

import (
	"errors"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/LerianStudio/lib-pawn/pawn/identity"
	"github.com/LerianStudio/lib-pawn/pawn/reconcile"
)

// checkLocked evaluates the guard of stage against the current data.
func (m *Machine) checkLocked(stage Stage) error {
	switch stage {
	case StageSelection:
		if m.batch.IsEmpty() {
			return pawn.NewDomainError(pawn.KindInputValidation, pawn.ErrorEmptyBatch, "batch.operations",
				"add at least one ticket")
		}

		return nil

	case StageVerification:
		var v pawn.Violations

		if !m.customerVerified {
			v.Add(pawn.ErrorUnverifiedCustomer, "verification.customerVerified", "customer identity has not been verified")
		}

		v.Merge("redeemer", identity.VerifyEvidence(m.classificationLocked(), m.redeemer, m.challengeAnswered))

		return v.Err(pawn.KindInputValidation, "verification is incomplete")

	case StagePayment:
		return reconcile.Validate(m.batch, m.split)

	case StageReview:
		var v pawn.Violations

		if !m.paymentSufficient {
			v.Add(pawn.ErrorInsufficientPayment, "payment.collected", "payment has not been settled")
		}

		authErr := authz.Check(m.requirementLocked(), m.approvals)
		v.Merge("approvals", authErr)

		if !m.confirmations.DocumentsVerified {
			v.Add(pawn.ErrorMissingConfirmation, "review.documentsVerified", "documents have not been verified")
		}

		if !m.confirmations.ComplianceChecked {
			v.Add(pawn.ErrorMissingConfirmation, "review.complianceChecked", "compliance has not been checked")
		}

		if !m.confirmations.FinalConfirmation {
			v.Add(pawn.ErrorMissingConfirmation, "review.finalConfirmation", "final confirmation has not been given")
		}

		kind := pawn.KindInputValidation
		if authErr != nil {
			kind = pawn.KindAuthorizationDenied
		}

		return v.Err(kind, "review is incomplete")
	}

	return errTransition("no transition from " + string(stage))
}

// violationsOf flattens err into field violations.
func violationsOf(err error) []pawn.FieldViolation {
	if err == nil {
		return nil
	}

	var de pawn.DomainError
	if !errors.As(err, &de) {
		return []pawn.FieldViolation{{Message: err.Error()}}
	}

	if len(de.Details) > 0 {
		return append([]pawn.FieldViolation(nil), de.Details...)
	}

	return []pawn.FieldViolation{{Field: de.Field, Code: de.Code, Message: de.Message}}
}

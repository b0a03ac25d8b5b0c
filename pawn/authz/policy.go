package authz

import (
	"strings"

	"github.com/LerianStudio/lib-pawn/pawn"
	"github.com/LerianStudio/lib-pawn/pawn/money"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
)

// Reason names a condition that raised a requirement.
type Reason string

const (
	ReasonDifferentRedeemer  Reason = "DIFFERENT_REDEEMER"
	ReasonDualStaffAmount    Reason = "DUAL_STAFF_AMOUNT"
	ReasonDualStaffTickets   Reason = "DUAL_STAFF_TICKETS"
	ReasonManagerAmount      Reason = "MANAGER_AMOUNT"
	ReasonManagerTicketCount Reason = "MANAGER_TICKETS"
)

// Policy holds the escalation thresholds. Each threshold is exceeded only
// when strictly greater.
type Policy struct {
	DualStaffAmount  money.Money
	DualStaffTickets int
	ManagerAmount    money.Money
	ManagerTickets   int
}

// DefaultPolicy returns the standard counter thresholds.
func DefaultPolicy() Policy {
	return Policy{
		DualStaffAmount:  money.FromInt(5000),
		DualStaffTickets: 5,
		ManagerAmount:    money.FromInt(10000),
		ManagerTickets:   10,
	}
}

// Requirement is derived from the batch and never stored.
type Requirement struct {
	RequiresDualStaff       bool     `json:"requiresDualStaff"`
	RequiresManagerApproval bool     `json:"requiresManagerApproval"`
	Reasons                 []Reason `json:"reasons,omitempty"`
}

// Decide evaluates the thresholds against batch. The conditions are
// independent and additive.
func (p Policy) Decide(batch ticket.Batch, differentRedeemer bool) Requirement {
	return p.DecideAmount(batch.NetAmount(), batch.Count(), differentRedeemer)
}

// DecideAmount is Decide for an already computed net amount and ticket count.
func (p Policy) DecideAmount(net money.Money, count int, differentRedeemer bool) Requirement {
	var (
		req Requirement
		abs = net.Abs()
	)

	if differentRedeemer {
		req.RequiresDualStaff = true
		req.Reasons = append(req.Reasons, ReasonDifferentRedeemer)
	}

	if abs.GreaterThan(p.DualStaffAmount) {
		req.RequiresDualStaff = true
		req.Reasons = append(req.Reasons, ReasonDualStaffAmount)
	}

	if count > p.DualStaffTickets {
		req.RequiresDualStaff = true
		req.Reasons = append(req.Reasons, ReasonDualStaffTickets)
	}

	if abs.GreaterThan(p.ManagerAmount) {
		req.RequiresManagerApproval = true
		req.Reasons = append(req.Reasons, ReasonManagerAmount)
	}

	if count > p.ManagerTickets {
		req.RequiresManagerApproval = true
		req.Reasons = append(req.Reasons, ReasonManagerTicketCount)
	}

	return req
}

// Decide applies DefaultPolicy.
func Decide(batch ticket.Batch, differentRedeemer bool) Requirement {
	return DefaultPolicy().Decide(batch, differentRedeemer)
}

// Approvals are the credentials attached to a batch at Review.
type Approvals struct {
	Primary       *Credential `json:"primary,omitempty"`
	Secondary     *Credential `json:"secondary,omitempty"`
	Manager       *Credential `json:"manager,omitempty"`
	Justification string      `json:"justification,omitempty"`
}

// Check verifies approvals against req. A manager never stands in for the
// second staff member, so the three credentials must all be distinct.
func Check(req Requirement, approvals Approvals) error {
	var v pawn.Violations

	primary, secondary, manager := approvals.Primary, approvals.Secondary, approvals.Manager

	if primary == nil {
		v.Add(pawn.ErrorMissingCredential, "approvals.primary", "primary staff credential is required")
	}

	switch {
	case secondary == nil && req.RequiresDualStaff:
		v.Add(pawn.ErrorMissingCredential, "approvals.secondary", "a second staff credential is required")
	case secondary != nil && primary != nil && secondary.StaffID == primary.StaffID:
		v.Add(pawn.ErrorDuplicateStaff, "approvals.secondary", "second staff member must differ from the primary")
	}

	if req.RequiresManagerApproval {
		switch {
		case manager == nil:
			v.Add(pawn.ErrorMissingCredential, "approvals.manager", "manager approval is required")
		case !manager.CanApproveAsManager():
			v.Add(pawn.ErrorInsufficientAuthority, "approvals.manager", manager.StaffID+" cannot give manager approval")
		case (primary != nil && manager.StaffID == primary.StaffID) ||
			(secondary != nil && manager.StaffID == secondary.StaffID):
			v.Add(pawn.ErrorDuplicateStaff, "approvals.manager", "manager must differ from the staff already attached")
		}

		if strings.TrimSpace(approvals.Justification) == "" {
			v.Add(pawn.ErrorMissingJustification, "approvals.justification", "manager approval needs a justification")
		}
	}

	return v.Err(pawn.KindAuthorizationDenied, "authorization requirements are not met")
}

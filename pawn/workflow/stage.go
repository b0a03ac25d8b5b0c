package workflow

// Stage is a step of the pipeline.
type Stage string

const (
	StageSelection    Stage = "SELECTION"
	StageVerification Stage = "VERIFICATION"
	StagePayment      Stage = "PAYMENT"
	StageReview       Stage = "REVIEW"
	// StageCommitted is terminal: the batch was booked.
	StageCommitted Stage = "COMMITTED"
	// StageTerminated is terminal: the batch was discarded.
	StageTerminated Stage = "TERMINATED"
)

var stageOrder = map[Stage]int{
	StageSelection:    0,
	StageVerification: 1,
	StagePayment:      2,
	StageReview:       3,
	StageCommitted:    4,
	StageTerminated:   5,
}

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return s == StageCommitted || s == StageTerminated
}

// Before reports whether s comes strictly earlier in the pipeline than other.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

func (s Stage) editable() bool {
	_, ok := stageOrder[s]

	return ok && !s.IsTerminal()
}

func (s Stage) next() Stage {
	switch s {
	case StageSelection:
		return StageVerification
	case StageVerification:
		return StagePayment
	case StagePayment:
		return StageReview
	default:
		return s
	}
}

// Role is the slot a staff credential fills at Review.
type Role string

const (
	RolePrimary   Role = "PRIMARY"
	RoleSecondary Role = "SECONDARY"
	RoleManager   Role = "MANAGER"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RolePrimary || r == RoleSecondary || r == RoleManager
}

func (r Role) field() string {
	switch r {
	case RoleSecondary:
		return "approvals.secondary"
	case RoleManager:
		return "approvals.manager"
	default:
		return "approvals.primary"
	}
}

// Confirmation is one of the operator's Review checkboxes.
type Confirmation string

const (
	ConfirmDocuments  Confirmation = "DOCUMENTS_VERIFIED"
	ConfirmCompliance Confirmation = "COMPLIANCE_CHECKED"
	ConfirmFinal      Confirmation = "FINAL_CONFIRMATION"
)

// Attachment asks for a staff member to be authenticated into a role.
type Attachment struct {
	Role    Role
	StaffID string
	PIN     string
}

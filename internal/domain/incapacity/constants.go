package incapacity

// Lifecycle states, in normal order of progress. The only backward edge is
// rejected -> reported, the owner's resubmission.
const (
	StateReported   = "reported"
	StateInReview   = "in_review"
	StateValidated  = "validated"
	StateRejected   = "rejected"
	StatePaid       = "paid"
	StateReconciled = "reconciled"
	StateArchived   = "archived"
)

var AllStates = []string{
	StateReported,
	StateInReview,
	StateValidated,
	StateRejected,
	StatePaid,
	StateReconciled,
	StateArchived,
}

// Incapacity types decide which payer carries the leave: ordinary sickness
// (EPS), occupational risk (ARL), or statutory maternity/paternity leave.
const (
	TypeEPS       = "eps"
	TypeARL       = "arl"
	TypeMaternity = "maternity_leave"
	TypePaternity = "paternity_leave"
)

var AllTypes = []string{
	TypeEPS,
	TypeARL,
	TypeMaternity,
	TypePaternity,
}

// RoleOwner is the pseudo-role of the employee the record belongs to. It only
// appears in the transition table for the resubmission edge.
const RoleOwner = "owner"

func ValidType(t string) bool {
	for _, candidate := range AllTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ValidState(s string) bool {
	for _, candidate := range AllStates {
		if candidate == s {
			return true
		}
	}
	return false
}

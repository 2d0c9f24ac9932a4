package replacement

const (
	StateActive    = "active"
	StateFinalized = "finalized"
	StateCancelled = "cancelled"
)

var AllStates = []string{StateActive, StateFinalized, StateCancelled}

package workflow

// State is a lifecycle state of a financial document
type State string

const (
	StateDraft         State = "DRAFT"
	StateSubmitted     State = "SUBMITTED"
	StatePendingClient State = "PENDING_CLIENT"
	StateApproved      State = "APPROVED"
	StateRejected      State = "REJECTED"
	StatePaid          State = "PAID"
)

// Each document kind carries its own table of allowed and terminal states;
// proposals and bills share the machine shape, not the state set.
var proposalStates = map[State]bool{
	StateDraft:         true,
	StateSubmitted:     true,
	StatePendingClient: true,
	StateApproved:      true,
	StateRejected:      true,
}

var billStates = map[State]bool{
	StateDraft:     true,
	StateSubmitted: true,
	StateApproved:  true,
	StatePaid:      true,
}

var proposalTerminal = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

var billTerminal = map[State]bool{
	StatePaid: true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

package workflow

// Trigger represents an event that can cause a state transition. Triggers
// are fired only by the document service entry points: explicit submission,
// the consensus engine's satisfied/vetoed signal, a client token decision,
// and payment bookkeeping for bills.
type Trigger string

const (
	TriggerSubmit             Trigger = "SUBMIT"
	TriggerConsensusSatisfied Trigger = "CONSENSUS_SATISFIED"
	TriggerConsensusVetoed    Trigger = "CONSENSUS_VETOED"
	TriggerClientApprove      Trigger = "CLIENT_APPROVE"
	TriggerClientReject       Trigger = "CLIENT_REJECT"
	TriggerMarkPaid           Trigger = "MARK_PAID"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

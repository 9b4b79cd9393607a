package workflow

import "context"

// ProposalMachine builds the lifecycle machine for a proposal positioned at
// the given state.
//
//	DRAFT -> SUBMITTED -> PENDING_CLIENT -> APPROVED | REJECTED
//
// When internal approval is not required, consensus is auto-satisfied on
// submission and the document skips the client stage entirely, landing on
// APPROVED straight from SUBMITTED. A consensus veto reverts to DRAFT.
func ProposalMachine(initial State, approvalRequired bool) Machine {
	b := NewBuilder(proposalStates, proposalTerminal)

	b.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	b.Configure(StateSubmitted).
		PermitIf(TriggerConsensusSatisfied, StatePendingClient, func(context.Context) bool { return approvalRequired }).
		Permit(TriggerConsensusSatisfied, StateApproved).
		Permit(TriggerConsensusVetoed, StateDraft)

	b.Configure(StatePendingClient).
		Permit(TriggerClientApprove, StateApproved).
		Permit(TriggerClientReject, StateRejected)

	return b.Build(initial)
}

// BillMachine builds the lifecycle machine for a bill positioned at the
// given state. Bills have no external client-decision stage; a veto at
// SUBMITTED reverts to DRAFT, and payment bookkeeping closes the lifecycle.
//
//	DRAFT -> SUBMITTED -> APPROVED -> PAID
func BillMachine(initial State) Machine {
	b := NewBuilder(billStates, billTerminal)

	b.Configure(StateDraft).
		Permit(TriggerSubmit, StateSubmitted)

	b.Configure(StateSubmitted).
		Permit(TriggerConsensusSatisfied, StateApproved).
		Permit(TriggerConsensusVetoed, StateDraft)

	b.Configure(StateApproved).
		Permit(TriggerMarkPaid, StatePaid)

	return b.Build(initial)
}

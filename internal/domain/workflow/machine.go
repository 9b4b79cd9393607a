package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a candidate transition may be taken
type GuardFunc func(ctx context.Context) bool

// Machine tracks the current state of one document and validates transitions.
// Status never changes except through Fire; repositories persist whatever
// state the machine lands in.
type Machine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts the trigger, moving to the target state if permitted
	Fire(ctx context.Context, trigger Trigger) error

	// InTerminalState reports whether no further transitions are allowed
	InTerminalState() bool
}

type transition struct {
	toState State
	guard   GuardFunc
}

type machine struct {
	current     State
	transitions map[State]map[Trigger][]transition
	terminal    map[State]bool
}

// State returns the current state
func (m *machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state.
// Guards are not evaluated here; any configured transition counts.
func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.transitions[m.current][trigger]) > 0
}

// Fire attempts the trigger. Candidate transitions are tried in
// configuration order; the first whose guard passes (or that has no guard)
// wins.
func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.transitions[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.toState
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from %s", ErrGuardFailed, trigger, m.current)
}

// InTerminalState reports whether no further transitions are allowed
func (m *machine) InTerminalState() bool {
	return m.terminal[m.current]
}

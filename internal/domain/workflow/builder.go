package workflow

import "fmt"

// Builder assembles a machine from per-state transition configurations.
// States are validated against the document kind's state table at
// configuration time, so a mis-wired lifecycle fails fast at startup rather
// than at the first request.
type Builder struct {
	valid       map[State]bool
	terminal    map[State]bool
	transitions map[State]map[Trigger][]transition
}

// Config configures the transitions leaving one state
type Config struct {
	builder *Builder
	from    State
}

// NewBuilder creates a builder whose states are restricted to the given
// valid set, with the given terminal states.
func NewBuilder(valid, terminal map[State]bool) *Builder {
	return &Builder{
		valid:       valid,
		terminal:    terminal,
		transitions: make(map[State]map[Trigger][]transition),
	}
}

// Configure returns the transition configuration for the given state
func (b *Builder) Configure(state State) Config {
	if !b.valid[state] {
		panic(fmt.Sprintf("workflow: state %s not in this document kind's state set", state))
	}
	if b.transitions[state] == nil {
		b.transitions[state] = make(map[Trigger][]transition)
	}
	return Config{builder: b, from: state}
}

// Permit allows a trigger to transition to the target state
func (c Config) Permit(trigger Trigger, toState State) Config {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf allows a trigger to transition to the target state when the
// guard passes
func (c Config) PermitIf(trigger Trigger, toState State, guard GuardFunc) Config {
	if !c.builder.valid[toState] {
		panic(fmt.Sprintf("workflow: target state %s not in this document kind's state set", toState))
	}
	c.builder.transitions[c.from][trigger] = append(c.builder.transitions[c.from][trigger], transition{
		toState: toState,
		guard:   guard,
	})
	return c
}

// Build creates a machine positioned at the given initial state. The
// builder's configuration is copied so built machines are independent.
func (b *Builder) Build(initial State) Machine {
	if !b.valid[initial] {
		panic(fmt.Sprintf("workflow: initial state %s not in this document kind's state set", initial))
	}

	transitions := make(map[State]map[Trigger][]transition, len(b.transitions))
	for state, byTrigger := range b.transitions {
		copied := make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[trigger] = append([]transition(nil), ts...)
		}
		transitions[state] = copied
	}

	return &machine{
		current:     initial,
		transitions: transitions,
		terminal:    b.terminal,
	}
}

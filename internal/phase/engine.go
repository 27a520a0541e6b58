package phase

import "sort"

// KickOutFunc performs the phase-specific substitution for an agent whose
// per-phase think-tick budget has expired (§4.5 "Kick-out
// substitution"). It returns an error only for fatal, non-recoverable
// conditions; ordinary insufficient-credit handling is expected to be
// absorbed internally and logged by the caller's own components.
type KickOutFunc func(phase Phase, agentUID string, tick uint64) error

// TransitionFunc is invoked whenever the engine advances to a new phase,
// letting the caller emit a phase_transition ledger event and run any
// phase-entry bookkeeping (e.g. Stake Registry AdvanceRound at the end of
// a STAKE round).
type TransitionFunc func(from, to Phase, tick uint64) error

// Engine drives the per-tick turn-advancement rule described in §4.5.
// It is deliberately agnostic of the Credit Manager, Proposal
// Graph, and Stake Registry: all phase-specific effects are delegated to
// the KickOutFunc and TransitionFunc callbacks the Orchestrator supplies.
type Engine struct {
	sequence []Phase
	cursor   int

	assigned []string
	think    map[string]int64
	complete map[string]bool

	maxThinkTicks int64

	onKickOut    KickOutFunc
	onTransition TransitionFunc
}

// NewEngine constructs a Phase Engine starting at PROPOSE.
func NewEngine(revisionCycles, stakeRounds int, assignedAgents []string, maxThinkTicks int64, onKickOut KickOutFunc, onTransition TransitionFunc) *Engine {
	agents := make([]string, len(assignedAgents))
	copy(agents, assignedAgents)
	sort.Strings(agents)

	e := &Engine{
		sequence:      Sequence(revisionCycles, stakeRounds),
		assigned:      agents,
		maxThinkTicks: maxThinkTicks,
		onKickOut:     onKickOut,
		onTransition:  onTransition,
	}
	e.resetPhaseState()
	return e
}

func (e *Engine) resetPhaseState() {
	e.think = make(map[string]int64, len(e.assigned))
	e.complete = make(map[string]bool, len(e.assigned))
	for _, a := range e.assigned {
		e.think[a] = 0
		e.complete[a] = false
	}
}

// Current returns the active phase.
func (e *Engine) Current() Phase {
	return e.sequence[e.cursor]
}

// MarkComplete records that an agent has satisfied the current phase's
// obligation, either by submitting the mandatory action or by calling
// signal_ready(). It is idempotent (§8 "signal_ready() is
// idempotent within a phase after the agent has completed their
// obligation").
func (e *Engine) MarkComplete(agentUID string) {
	if _, tracked := e.complete[agentUID]; tracked {
		e.complete[agentUID] = true
	}
}

// IsComplete reports whether the agent has already satisfied this
// phase's obligation.
func (e *Engine) IsComplete(agentUID string) bool {
	return e.complete[agentUID]
}

// allComplete reports whether every assigned agent has satisfied this
// phase's obligation.
func (e *Engine) allComplete() bool {
	for _, a := range e.assigned {
		if !e.complete[a] {
			return false
		}
	}
	return true
}

// Tick advances the think-tick counters for every incomplete agent,
// kicks out any agent whose counter reaches MaxThinkTicks, and — once
// every assigned agent is complete — transitions to the next phase. It
// is the sole caller of KickOutFunc and TransitionFunc (§4.5, §5
// "the Orchestrator serializes every action through a single commit
// path").
func (e *Engine) Tick(tick uint64) error {
	if e.Current().Terminal() {
		return nil
	}

	// Stable iteration order keeps kick-out substitution deterministic
	// across replays (§4.1 "byte-identical" replay guarantee).
	for _, a := range e.assigned {
		if e.complete[a] {
			continue
		}
		e.think[a]++
		if e.think[a] >= e.maxThinkTicks {
			if err := e.onKickOut(e.Current(), a, tick); err != nil {
				return err
			}
			e.complete[a] = true
		}
	}

	if e.allComplete() && !e.Current().Terminal() {
		from := e.Current()
		if e.cursor < len(e.sequence)-1 {
			e.cursor++
		}
		to := e.Current()
		e.resetPhaseState()
		if e.onTransition != nil {
			if err := e.onTransition(from, to, tick); err != nil {
				return err
			}
		}
	}
	return nil
}

// AssignedAgents returns the roster bound to this phase engine, in
// deterministic sorted order.
func (e *Engine) AssignedAgents() []string {
	out := make([]string, len(e.assigned))
	copy(out, e.assigned)
	return out
}

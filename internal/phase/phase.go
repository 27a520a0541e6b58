// Package phase implements the consensus Phase Engine: the finite state
// machine over {PROPOSE, FEEDBACK, REVISE, STAKE, FINALIZE} and the
// per-tick turn-advancement rule with kick-out substitution (§4.5).
package phase

import "fmt"

// Kind tags the five phase variants named in §4.5. FEEDBACK and
// REVISE repeat RevisionCycles times; STAKE repeats StakeRounds times.
type Kind int

const (
	KindPropose Kind = iota
	KindFeedback
	KindRevise
	KindStake
	KindFinalize
)

// Phase is a tagged variant of the phase sequence, e.g. Feedback(2) or
// Stake(1) (§9 "Polymorphic phase handlers").
type Phase struct {
	Kind  Kind
	Round int // 1-based round index for Feedback/Revise/Stake; 0 otherwise
}

// String renders the phase the way the ledger's `phase` column expects,
// e.g. "PROPOSE", "FEEDBACK_1", "STAKE_3", "FINALIZE".
func (p Phase) String() string {
	switch p.Kind {
	case KindPropose:
		return "PROPOSE"
	case KindFeedback:
		return fmt.Sprintf("FEEDBACK_%d", p.Round)
	case KindRevise:
		return fmt.Sprintf("REVISE_%d", p.Round)
	case KindStake:
		return fmt.Sprintf("STAKE_%d", p.Round)
	case KindFinalize:
		return "FINALIZE"
	default:
		return "UNKNOWN"
	}
}

// Sequence builds the full, ordered phase list for a run given its
// RevisionCycles and StakeRounds configuration (§4.5 "States").
func Sequence(revisionCycles, stakeRounds int) []Phase {
	seq := []Phase{{Kind: KindPropose}}
	for i := 1; i <= revisionCycles; i++ {
		seq = append(seq, Phase{Kind: KindFeedback, Round: i})
		seq = append(seq, Phase{Kind: KindRevise, Round: i})
	}
	for j := 1; j <= stakeRounds; j++ {
		seq = append(seq, Phase{Kind: KindStake, Round: j})
	}
	seq = append(seq, Phase{Kind: KindFinalize})
	return seq
}

// Terminal reports whether the phase is the absorbing FINALIZE state.
func (p Phase) Terminal() bool {
	return p.Kind == KindFinalize
}

package orchestrator

import (
	"sort"

	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/phase"
)

// AdvanceTick is the privileged tick() action, invoked only by the
// external scheduler (§4.6). It runs the Phase Engine's
// turn-advancement rule for the current tick, then advances the logical
// clock from N to N+1 (§4.5).
func (o *Orchestrator) AdvanceTick() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.finalized {
		return nil
	}
	if err := o.phaseEngine.Tick(o.tick); err != nil {
		return err
	}
	o.tick++
	if o.metrics != nil {
		o.metrics.TicksProcessed.Inc()
		o.metrics.CurrentPhase.Set(float64(o.phaseEngine.Current().Kind))
	}
	return nil
}

// kickOut performs the phase-specific substitution for an agent whose
// per-phase think-tick budget has expired (§4.5 "Kick-out
// substitution").
func (o *Orchestrator) kickOut(ph phase.Phase, agentUID string, tick uint64) error {
	if _, err := o.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   ph.String(),
		AgentID: agentUID,
		Type:    ledger.EventPhaseTimeout,
		Payload: map[string]any{"phase": ph.String()},
	}); err != nil {
		return err
	}

	if o.metrics != nil {
		o.metrics.KickOuts.Inc()
	}

	if o.cfg.KickOutPenalty > 0 {
		if _, err := o.credit.AttemptDeduct(ph.String(), agentUID, o.cfg.KickOutPenalty, "kickout_penalty", tick, o.issue.ID); err != nil {
			return err
		}
	}

	switch ph.Kind {
	case phase.KindPropose:
		if !o.graph.HasSubmitted(agentUID) {
			if _, err := o.graph.SubmitNoAction(ph.String(), agentUID, tick); err != nil {
				return err
			}
		}
	case phase.KindFeedback, phase.KindRevise, phase.KindStake:
		// Treated as signal_ready with no side effect (§4.5).
	}
	return nil
}

// onTransition fires phase_transition bookkeeping: advancing the Stake
// Registry's conviction round at the end of every STAKE round, capturing
// the blind-staking visibility boundary on entry to each STAKE round, and
// running FINALIZE's winner selection (§4.4, §4.5).
func (o *Orchestrator) onTransition(from, to phase.Phase, tick uint64) error {
	if _, err := o.ledger.Append(ledger.Event{
		Tick:  tick,
		Phase: to.String(),
		Type:  ledger.EventPhaseTransition,
		Payload: map[string]any{
			"from": from.String(),
			"to":   to.String(),
		},
	}); err != nil {
		return err
	}

	if from.Kind == phase.KindStake {
		o.registry.AdvanceRound()
	}
	if to.Kind == phase.KindStake {
		o.boundarySeq[to.Round] = uint64(o.ledger.Len())
	}
	if to.Kind == phase.KindFinalize {
		return o.finalize(tick)
	}
	return nil
}

// finalize implements §4.5's winner selection: for each distinct
// author line, score its active version, pick the maximum, breaking ties
// by earliest LastStakeTick, then burn every stake.
func (o *Orchestrator) finalize(tick uint64) error {
	lines := o.graph.ActiveLines()

	type candidate struct {
		proposalID string
		authorUID  string
		score      float64
		lastTick   uint64
	}
	candidates := make([]candidate, 0, len(lines))
	for _, p := range lines {
		candidates = append(candidates, candidate{
			proposalID: p.ID,
			authorUID:  p.AuthorUID,
			score:      o.registry.Score(p.ID),
			lastTick:   o.registry.LastStakeTick(p.ID),
		})
	}
	// Deterministic base ordering before comparison so ties resolve the
	// same way on every replay (§4.1 byte-identical replay).
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].proposalID < candidates[j].proposalID
	})

	var winner candidate
	hasWinner := false
	for _, c := range candidates {
		if !hasWinner {
			winner = c
			hasWinner = true
			continue
		}
		switch {
		case c.score > winner.score:
			winner = c
		case c.score == winner.score && c.lastTick < winner.lastTick:
			winner = c
		}
	}

	o.winnerID = winner.proposalID
	o.winnerScore = winner.score
	o.issue.Close(winner.proposalID)

	if _, err := o.ledger.Append(ledger.Event{
		Tick:  tick,
		Phase: phase.Phase{Kind: phase.KindFinalize}.String(),
		Type:  ledger.EventFinalize,
		Payload: map[string]any{
			"winner_proposal_id": winner.proposalID,
			"winner_author":      winner.authorUID,
			"score":              winner.score,
			"last_stake_tick":    winner.lastTick,
			"issue":              o.issue.ID,
		},
	}); err != nil {
		return err
	}

	if err := o.credit.BurnAllStakes(phase.Phase{Kind: phase.KindFinalize}.String(), tick, o.issue.ID); err != nil {
		return err
	}

	o.finalized = true
	return nil
}

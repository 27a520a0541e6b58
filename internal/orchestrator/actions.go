package orchestrator

import (
	"encoding/json"

	"github.com/roundtable/rtc/internal/credit"
	"github.com/roundtable/rtc/internal/feedback"
	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/phase"
	"github.com/roundtable/rtc/internal/proposal"
	"github.com/roundtable/rtc/internal/stakeregistry"
)

func encodeEvents(events []ledger.Event) []byte {
	b, err := json.Marshal(events)
	if err != nil {
		return []byte("[]")
	}
	return b
}

// SubmitProposal handles submit_proposal(body) (§4.6).
func (o *Orchestrator) SubmitProposal(credential string, body proposal.Body) ActionResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, rejection, ok := o.authenticate(credential)
	if !ok {
		return rejection
	}
	if rejection, ok := o.requirePhase(phase.KindPropose); !ok {
		return rejection
	}
	if o.graph.HasSubmitted(a.UID) {
		return rejected(ResultRejectedSemantic, "agent already has an active proposal")
	}

	ph := o.phaseEngine.Current().String()
	p, err := o.graph.Submit(ph, a.UID, body, o.tick)
	if err != nil {
		return rejected(ResultRejectedSemantic, err.Error())
	}
	if p == nil {
		return rejected(ResultRejectedInsufficientCredit, "insufficient_cp_for_stake")
	}
	o.phaseEngine.MarkComplete(a.UID)
	return ok2(p.ID)
}

func ok2(proposalID string) ActionResult {
	return ActionResult{Code: ResultOk, ProposalID: proposalID}
}

// SignalReady handles signal_ready() (§4.6). It is idempotent once
// the agent's phase obligation is satisfied (§8).
func (o *Orchestrator) SignalReady(credential string) ActionResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, rejection, authOK := o.authenticate(credential)
	if !authOK {
		return rejection
	}

	ph := o.phaseEngine.Current()
	if ph.Kind == phase.KindPropose && !o.graph.HasSubmitted(a.UID) {
		if _, err := o.graph.SubmitNoAction(ph.String(), a.UID, o.tick); err != nil {
			return rejected(ResultRejectedSemantic, err.Error())
		}
	}

	o.phaseEngine.MarkComplete(a.UID)
	if _, err := o.ledger.Append(ledger.Event{
		Tick:    o.tick,
		Phase:   ph.String(),
		AgentID: a.UID,
		Type:    ledger.EventAgentReady,
	}); err != nil {
		return rejected(ResultRejectedSemantic, err.Error())
	}
	return ok()
}

// SubmitFeedback handles submit_feedback(target, body) (§4.6).
func (o *Orchestrator) SubmitFeedback(credential, targetProposalID, body string) ActionResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, rejection, authOK := o.authenticate(credential)
	if !authOK {
		return rejection
	}
	if rejection, ok := o.requirePhase(phase.KindFeedback); !ok {
		return rejection
	}

	own, _ := o.graph.ActiveProposalFor(a.UID)
	if own != nil && own.ID == targetProposalID {
		return rejected(ResultRejectedSemantic, "feedback_target_self")
	}
	if _, ok := o.graph.Get(targetProposalID); !ok {
		return rejected(ResultRejectedNotFound, "unknown proposal")
	}

	rec, err := o.fb.Submit(a.UID, targetProposalID, body, o.tick)
	if err != nil {
		switch err {
		case feedback.ErrQuotaExceeded:
			return rejected(ResultRejectedQuotaExceeded, "FeedbackLimitReached")
		case feedback.ErrTooLong:
			return rejected(ResultRejectedSemantic, "FeedbackTooLong")
		default:
			return rejected(ResultRejectedSemantic, err.Error())
		}
	}

	ph := o.phaseEngine.Current().String()
	if o.cfg.FeedbackStake > 0 {
		paidOK, derr := o.credit.AttemptDeduct(ph, a.UID, o.cfg.FeedbackStake, "feedback_cost", o.tick, o.issue.ID)
		if derr != nil {
			return rejected(ResultRejectedSemantic, derr.Error())
		}
		if !paidOK {
			return rejected(ResultRejectedInsufficientCredit, "insufficient CP for feedback stake")
		}
	}

	if _, err := o.ledger.Append(ledger.Event{
		Tick:    o.tick,
		Phase:   o.phaseEngine.Current().String(),
		AgentID: a.UID,
		Type:    ledger.EventFeedbackRecorded,
		Payload: map[string]any{
			"target_proposal_id": rec.TargetID,
			"body_len":           len(rec.Body),
		},
	}); err != nil {
		return rejected(ResultRejectedSemantic, err.Error())
	}

	o.phaseEngine.MarkComplete(a.UID)
	return ok()
}

// SubmitRevision handles submit_revision(new_body) (§4.6, §4.3).
func (o *Orchestrator) SubmitRevision(credential string, newBody proposal.Body) ActionResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, rejection, authOK := o.authenticate(credential)
	if !authOK {
		return rejection
	}
	if rejection, ok := o.requirePhase(phase.KindRevise); !ok {
		return rejection
	}

	own, hasOwn := o.graph.ActiveProposalFor(a.UID)
	if !hasOwn || own.AuthorUID != a.UID {
		return rejected(ResultRejectedSemantic, "no own proposal to revise")
	}

	ph := o.phaseEngine.Current().String()
	newP, _, err := o.graph.Revise(ph, a.UID, newBody, o.tick)
	if err != nil {
		if err == credit.ErrInsufficientCredit {
			return rejected(ResultRejectedInsufficientCredit, "insufficient CP for revision cost")
		}
		return rejected(ResultRejectedSemantic, err.Error())
	}
	if newP == nil {
		return rejected(ResultRejectedInsufficientCredit, "insufficient CP for revision cost")
	}

	o.phaseEngine.MarkComplete(a.UID)
	return ok2(newP.ID)
}

// StakeAdd handles stake_add(proposal, amount) (§4.6).
func (o *Orchestrator) StakeAdd(credential, proposalID string, amount int64) ActionResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, rejection, authOK := o.authenticate(credential)
	if !authOK {
		return rejection
	}
	if rejection, ok := o.requirePhase(phase.KindStake); !ok {
		return rejection
	}
	if amount <= 0 {
		return rejected(ResultRejectedSemantic, "amount must be positive")
	}
	if _, ok := o.graph.Get(proposalID); !ok {
		return rejected(ResultRejectedNotFound, "unknown proposal")
	}

	ph := o.phaseEngine.Current().String()
	stakeID, paidOK, err := o.credit.StakeToProposal(ph, a.UID, proposalID, amount, stakeregistry.KindVoluntary, o.tick, o.issue.ID)
	if err != nil {
		return rejected(ResultRejectedSemantic, err.Error())
	}
	if !paidOK {
		return rejected(ResultRejectedInsufficientCredit, "insufficient CP for stake")
	}

	o.phaseEngine.MarkComplete(a.UID)
	return ActionResult{Code: ResultOk, StakeID: stakeID}
}

// StakeSwitch handles stake_switch(stake_id, new_proposal) (§4.6).
func (o *Orchestrator) StakeSwitch(credential, stakeID, newProposalID string) ActionResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, rejection, authOK := o.authenticate(credential)
	if !authOK {
		return rejection
	}
	if rejection, ok := o.requirePhase(phase.KindStake); !ok {
		return rejection
	}
	rec, found := o.registry.Get(stakeID)
	if !found {
		return rejected(ResultRejectedNotFound, "unknown stake")
	}
	if rec.AgentUID != a.UID {
		return rejected(ResultRejectedSemantic, "not the owner of this stake")
	}
	if _, ok := o.graph.Get(newProposalID); !ok {
		return rejected(ResultRejectedNotFound, "unknown proposal")
	}

	ph := o.phaseEngine.Current().String()
	if err := o.credit.SwitchVoluntary(ph, a.UID, stakeID, newProposalID, o.tick, o.issue.ID); err != nil {
		switch err {
		case credit.ErrStakeImmutable:
			return rejected(ResultRejectedSemantic, "StakeImmutable")
		case credit.ErrStakeNotFound:
			return rejected(ResultRejectedNotFound, "unknown stake")
		default:
			return rejected(ResultRejectedSemantic, err.Error())
		}
	}

	o.phaseEngine.MarkComplete(a.UID)
	return ActionResult{Code: ResultOk, StakeID: stakeID}
}

// StakeWithdraw handles stake_withdraw(stake_id) (§4.6).
func (o *Orchestrator) StakeWithdraw(credential, stakeID string) ActionResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	a, rejection, authOK := o.authenticate(credential)
	if !authOK {
		return rejection
	}
	if rejection, ok := o.requirePhase(phase.KindStake); !ok {
		return rejection
	}
	rec, found := o.registry.Get(stakeID)
	if !found {
		return rejected(ResultRejectedNotFound, "unknown stake")
	}
	if rec.AgentUID != a.UID {
		return rejected(ResultRejectedSemantic, "not the owner of this stake")
	}

	ph := o.phaseEngine.Current().String()
	if err := o.credit.WithdrawVoluntary(ph, a.UID, stakeID, o.tick, o.issue.ID); err != nil {
		switch err {
		case credit.ErrStakeImmutable:
			return rejected(ResultRejectedSemantic, "StakeImmutable")
		case credit.ErrStakeNotFound:
			return rejected(ResultRejectedNotFound, "unknown stake")
		default:
			return rejected(ResultRejectedSemantic, err.Error())
		}
	}

	o.phaseEngine.MarkComplete(a.UID)
	return ActionResult{Code: ResultOk, StakeID: stakeID}
}

// QueryState returns the ledger events visible to the calling agent,
// honoring the blind-staking rule during STAKE rounds (§4.4, §4.6
// query_state).
func (o *Orchestrator) QueryState(credential string) ([]byte, ActionResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, rejection, authOK := o.authenticate(credential)
	if !authOK {
		return nil, rejection
	}

	ph := o.phaseEngine.Current()
	var events = o.ledger.All()
	if ph.Kind == phase.KindStake {
		boundary := o.boundarySeq[ph.Round]
		events = o.ledger.Range(1, boundary)
	}

	return encodeEvents(events), ok()
}

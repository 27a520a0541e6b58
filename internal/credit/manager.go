// Package credit implements the Conviction Points ledger custodian
// (§4.2). It is the only component authorized to mutate CP balances and
// stake custody.
package credit

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/stakeregistry"
)

// Manager maintains per-agent CP balances and brokers every stake custody
// change through the Stake Registry, emitting ledger events for each
// mutation.
type Manager struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	registry *stakeregistry.Registry
	balances map[string]int64
	maxCredit int64
	selfStakeAmount int64
}

// New constructs a Credit Manager bound to a ledger and stake registry.
func New(l *ledger.Ledger, registry *stakeregistry.Registry, maxCredit, selfStakeAmount int64) *Manager {
	return &Manager{
		ledger:          l,
		registry:        registry,
		balances:        make(map[string]int64),
		maxCredit:       maxCredit,
		selfStakeAmount: selfStakeAmount,
	}
}

// Balance returns the agent's current liquid balance.
func (m *Manager) Balance(agentUID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[agentUID]
}

// Locked returns the agent's total CP currently held by live stake
// records (§8 property 4).
func (m *Manager) Locked(agentUID string) int64 {
	return m.registry.LockedByAgent(agentUID)
}

// Award adds CP to an agent's balance, rejecting awards that would exceed
// MaximumCredit (§4.2 award).
func (m *Manager) Award(phase string, agentUID string, amount int64, reason string, tick uint64, issueID string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.balances[agentUID]+amount > m.maxCredit {
		return 0, ErrMaxCreditExceeded
	}
	m.balances[agentUID] += amount
	return m.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventCreditAward,
		Message: reason,
		Payload: map[string]any{
			"amount": amount,
			"reason": reason,
			"issue":  issueID,
			"balance_after": m.balances[agentUID],
		},
	})
}

// AttemptDeduct atomically deducts CP from the agent's liquid balance, or
// logs insufficient_credit and returns false without mutating state
// (§4.2 attempt_deduct).
func (m *Manager) AttemptDeduct(phase string, agentUID string, amount int64, reason string, tick uint64, issueID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deductLocked(phase, agentUID, amount, reason, tick, issueID)
}

func (m *Manager) deductLocked(phase string, agentUID string, amount int64, reason string, tick uint64, issueID string) (bool, error) {
	if m.balances[agentUID] < amount {
		if _, err := m.ledger.Append(ledger.Event{
			Tick:    tick,
			Phase:   phase,
			AgentID: agentUID,
			Type:    ledger.EventInsufficientCredit,
			Message: reason,
			Payload: map[string]any{
				"requested": amount,
				"available": m.balances[agentUID],
				"reason":    reason,
				"issue":     issueID,
			},
		}); err != nil {
			return false, err
		}
		return false, nil
	}
	m.balances[agentUID] -= amount
	if _, err := m.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventCreditBurn,
		Message: reason,
		Payload: map[string]any{
			"amount": amount,
			"reason": reason,
			"issue":  issueID,
			"balance_after": m.balances[agentUID],
		},
	}); err != nil {
		return false, err
	}
	return true, nil
}

// StakeToProposal deducts CP and records an atomic stake (§4.2
// stake_to_proposal).
func (m *Manager) StakeToProposal(phase, agentUID, proposalID string, amount int64, kind stakeregistry.Kind, tick uint64, issueID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok, err := m.deductLocked(phase, agentUID, amount, "stake_"+string(kind), tick, issueID)
	if err != nil || !ok {
		return "", ok, err
	}
	id := uuid.NewString()
	m.registry.Add(id, agentUID, proposalID, amount, kind, tick)
	if _, err := m.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventStakeRecorded,
		Payload: map[string]any{
			"stake_id":    id,
			"proposal_id": proposalID,
			"amount":      amount,
			"kind":        string(kind),
			"issue":       issueID,
		},
	}); err != nil {
		return id, false, err
	}
	return id, true, nil
}

// TransferStake reassigns an author's mandatory self-stake to a newly
// revised proposal version, preserving its conviction counter (§4.2
// transfer_stake, §4.3 revise).
func (m *Manager) TransferStake(phase, stakeID, oldProposalID, newProposalID string, tick uint64, issueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.registry.Retarget(stakeID, newProposalID); err != nil {
		return err
	}
	_, err := m.ledger.Append(ledger.Event{
		Tick:  tick,
		Phase: phase,
		Type:  ledger.EventConvictionUpdated,
		Payload: map[string]any{
			"stake_id":        stakeID,
			"from_proposal":   oldProposalID,
			"to_proposal":     newProposalID,
			"issue":           issueID,
			"reason":          "revision_transfer",
		},
	})
	return err
}

// SwitchVoluntary moves a voluntary stake record, resetting its
// conviction counter (§4.2 switch_voluntary).
func (m *Manager) SwitchVoluntary(phase, agentUID, stakeID, newProposalID string, tick uint64, issueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, ok := m.registry.Get(stakeID)
	if !ok {
		return ErrStakeNotFound
	}
	if before.Kind == stakeregistry.KindMandatorySelf {
		return ErrStakeImmutable
	}
	after, err := m.registry.Switch(stakeID, newProposalID, tick)
	if err != nil {
		if err == stakeregistry.ErrImmutable {
			return ErrStakeImmutable
		}
		if err == stakeregistry.ErrNotFound {
			return ErrStakeNotFound
		}
		return err
	}
	if _, err := m.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventStakeSwitched,
		Payload: map[string]any{
			"stake_id":      stakeID,
			"from_proposal": before.ProposalID,
			"to_proposal":   after.ProposalID,
			"amount":        after.Amount,
			"issue":         issueID,
		},
	}); err != nil {
		return err
	}
	_, err = m.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventConvictionSwitched,
		Payload: map[string]any{
			"stake_id":      stakeID,
			"from_proposal": before.ProposalID,
			"to_proposal":   after.ProposalID,
			"previous_rounds": before.Rounds,
			"issue":         issueID,
		},
	})
	return err
}

// WithdrawVoluntary returns a voluntary stake's CP to the agent's
// balance (§4.2 withdraw_voluntary, pre-finalize only).
func (m *Manager) WithdrawVoluntary(phase, agentUID, stakeID string, tick uint64, issueID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.registry.Withdraw(stakeID, tick)
	if err != nil {
		if err == stakeregistry.ErrImmutable {
			return ErrStakeImmutable
		}
		if err == stakeregistry.ErrNotFound {
			return ErrStakeNotFound
		}
		return err
	}
	m.balances[agentUID] += rec.Amount
	_, err = m.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventStakeWithdrawn,
		Payload: map[string]any{
			"stake_id":    stakeID,
			"proposal_id": rec.ProposalID,
			"amount":      rec.Amount,
			"reason":      "voluntary_withdraw",
			"issue":       issueID,
		},
	})
	return err
}

// AutoStakeTap un-stakes the minimum CP from an agent's own mandatory
// self-stake to cover a liquidity shortfall during REVISE (§4.2
// auto_stake_tap). It returns the amount actually pulled, which may be
// less than needed if the self-stake cannot fully cover the deficit.
func (m *Manager) AutoStakeTap(phase, agentUID, selfStakeID string, needed int64, tick uint64, issueID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.registry.Get(selfStakeID)
	if !ok {
		return 0, ErrStakeNotFound
	}
	pulled := needed
	if pulled > rec.Amount {
		pulled = rec.Amount
	}
	if pulled <= 0 {
		return 0, nil
	}
	if _, err := m.registry.AdjustAmount(selfStakeID, -pulled); err != nil {
		return 0, err
	}
	m.balances[agentUID] += pulled
	_, err := m.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventStakeWithdrawn,
		Payload: map[string]any{
			"stake_id": selfStakeID,
			"amount":   pulled,
			"reason":   "auto_tap",
			"issue":    issueID,
		},
	})
	return pulled, err
}

// DeductWithAutoTap attempts a plain deduction, falling back to
// AutoStakeTap against the agent's own mandatory self-stake when liquid
// balance is insufficient (§4.2, §4.3 revise, §8 Scenario F). A rejection
// is a no-op on state: the self-stake capacity is checked before any tap
// is performed, so a deficit the self-stake cannot fully cover never
// partially shrinks the stake or credits the balance (§7, §8).
func (m *Manager) DeductWithAutoTap(phase, agentUID, selfStakeID string, amount int64, reason string, tick uint64, issueID string) (bool, error) {
	m.mu.Lock()
	liquid := m.balances[agentUID]
	m.mu.Unlock()

	if liquid >= amount {
		return m.AttemptDeduct(phase, agentUID, amount, reason, tick, issueID)
	}

	deficit := amount - liquid
	rec, ok := m.registry.Get(selfStakeID)
	if !ok {
		return false, ErrStakeNotFound
	}
	if rec.Amount < deficit {
		m.mu.Lock()
		_, err := m.ledger.Append(ledger.Event{
			Tick:    tick,
			Phase:   phase,
			AgentID: agentUID,
			Type:    ledger.EventInsufficientCredit,
			Message: reason,
			Payload: map[string]any{
				"requested": amount,
				"available": liquid + rec.Amount,
				"reason":    reason,
				"issue":     issueID,
			},
		})
		m.mu.Unlock()
		return false, err
	}

	if _, err := m.AutoStakeTap(phase, agentUID, selfStakeID, deficit, tick, issueID); err != nil {
		return false, err
	}
	return m.AttemptDeduct(phase, agentUID, amount, reason, tick, issueID)
}

// BurnAllStakes burns every stake record for the issue at FINALIZE (§4.2
// burn_all_stakes).
func (m *Manager) BurnAllStakes(phase string, tick uint64, issueID string) error {
	records := m.registry.BurnAll()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		if _, err := m.ledger.Append(ledger.Event{
			Tick:    tick,
			Phase:   phase,
			AgentID: rec.AgentUID,
			Type:    ledger.EventCreditBurn,
			Message: "stake_burn",
			Payload: map[string]any{
				"stake_id":    rec.ID,
				"proposal_id": rec.ProposalID,
				"amount":      rec.Amount,
				"reason":      "stake_burn",
				"issue":       issueID,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// Registry exposes the underlying stake registry for read-only scoring
// queries (§4.4).
func (m *Manager) Registry() *stakeregistry.Registry {
	return m.registry
}

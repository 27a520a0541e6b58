package credit

import (
	"testing"

	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/stakeregistry"
)

func newTestManager() *Manager {
	l := ledger.New(nil)
	registry := stakeregistry.New(stakeregistry.Params{
		MaxConvictionMultiplier:    2.0,
		ConvictionTargetFraction:  0.98,
		ConvictionSaturationRounds: 5,
	})
	return New(l, registry, 1000, 50)
}

func TestAwardRejectsOverMaximum(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("PROPOSE", "a1", 900, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, err := m.Award("PROPOSE", "a1", 200, "invite", 0, "issue-1"); err != ErrMaxCreditExceeded {
		t.Fatalf("expected ErrMaxCreditExceeded, got %v", err)
	}
}

func TestAttemptDeductInsufficientBalance(t *testing.T) {
	m := newTestManager()
	ok, err := m.AttemptDeduct("PROPOSE", "a1", 10, "test", 0, "issue-1")
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if ok {
		t.Fatalf("expected deduction to fail on zero balance")
	}
}

func TestStakeToProposalDeductsAndRecords(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("PROPOSE", "a1", 100, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	stakeID, ok, err := m.StakeToProposal("PROPOSE", "a1", "P1", 50, stakeregistry.KindMandatorySelf, 0, "issue-1")
	if err != nil || !ok {
		t.Fatalf("stake: ok=%v err=%v", ok, err)
	}
	if m.Balance("a1") != 50 {
		t.Fatalf("expected balance 50 after stake, got %d", m.Balance("a1"))
	}
	if m.Locked("a1") != 50 {
		t.Fatalf("expected locked 50, got %d", m.Locked("a1"))
	}
	if stakeID == "" {
		t.Fatalf("expected non-empty stake id")
	}
}

func TestSwitchVoluntaryRejectsMandatorySelf(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("PROPOSE", "a1", 100, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	stakeID, _, err := m.StakeToProposal("PROPOSE", "a1", "P1", 50, stakeregistry.KindMandatorySelf, 0, "issue-1")
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := m.SwitchVoluntary("STAKE_1", "a1", stakeID, "P2", 1, "issue-1"); err != ErrStakeImmutable {
		t.Fatalf("expected ErrStakeImmutable, got %v", err)
	}
}

func TestSwitchVoluntaryEmitsStakeAndConvictionEvents(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("PROPOSE", "a1", 100, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	stakeID, _, err := m.StakeToProposal("STAKE_1", "a1", "P1", 20, stakeregistry.KindVoluntary, 0, "issue-1")
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := m.SwitchVoluntary("STAKE_1", "a1", stakeID, "P2", 1, "issue-1"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	events := m.ledger.Range(0, 100)
	var sawStakeSwitched, sawConvictionSwitched bool
	for _, e := range events {
		switch e.Type {
		case ledger.EventStakeSwitched:
			sawStakeSwitched = true
		case ledger.EventConvictionSwitched:
			sawConvictionSwitched = true
		}
	}
	if !sawStakeSwitched {
		t.Fatalf("expected a stake_switched event, events=%+v", events)
	}
	if !sawConvictionSwitched {
		t.Fatalf("expected a conviction_switched event, events=%+v", events)
	}
}

func TestWithdrawVoluntaryReturnsBalance(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("STAKE_1", "a1", 100, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	stakeID, _, err := m.StakeToProposal("STAKE_1", "a1", "P1", 40, stakeregistry.KindVoluntary, 1, "issue-1")
	if err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := m.WithdrawVoluntary("STAKE_1", "a1", stakeID, 2, "issue-1"); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if m.Balance("a1") != 100 {
		t.Fatalf("expected balance restored to 100, got %d", m.Balance("a1"))
	}
}

func TestAutoStakeTapPullsMinimumCovering(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("PROPOSE", "a1", 50, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	stakeID, ok, err := m.StakeToProposal("PROPOSE", "a1", "P1", 50, stakeregistry.KindMandatorySelf, 0, "issue-1")
	if err != nil || !ok {
		t.Fatalf("self-stake: ok=%v err=%v", ok, err)
	}
	// Balance is now 0; revision cost of 20 must come entirely from the tap.
	paid, err := m.DeductWithAutoTap("REVISE_1", "a1", stakeID, 20, "revision_cost", 1, "issue-1")
	if err != nil {
		t.Fatalf("deduct with auto tap: %v", err)
	}
	if !paid {
		t.Fatalf("expected auto-tap to cover the deficit")
	}
	rec, _ := m.Registry().Get(stakeID)
	if rec.Amount != 30 {
		t.Fatalf("expected self-stake shrunk to 30, got %d", rec.Amount)
	}
}

func TestDeductWithAutoTapFailsWhenStakeInsufficient(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("PROPOSE", "a1", 10, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	stakeID, ok, err := m.StakeToProposal("PROPOSE", "a1", "P1", 10, stakeregistry.KindMandatorySelf, 0, "issue-1")
	if err != nil || !ok {
		t.Fatalf("self-stake: ok=%v err=%v", ok, err)
	}
	paid, err := m.DeductWithAutoTap("REVISE_1", "a1", stakeID, 999, "revision_cost", 1, "issue-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid {
		t.Fatalf("expected deduction to fail when self-stake cannot cover deficit")
	}
	// A rejected deduction must be a no-op on state: the self-stake must
	// not have been partially shrunk, and the balance must not have
	// received any of the tapped CP.
	if got, ok := m.registry.Get(stakeID); !ok || got.Amount != 10 {
		t.Fatalf("expected self-stake to remain at 10, got %+v (ok=%v)", got, ok)
	}
	if got := m.Balance("a1"); got != 0 {
		t.Fatalf("expected balance to remain 0, got %d", got)
	}
}

func TestBurnAllStakesClearsRegistry(t *testing.T) {
	m := newTestManager()
	if _, err := m.Award("PROPOSE", "a1", 100, "invite", 0, "issue-1"); err != nil {
		t.Fatalf("award: %v", err)
	}
	if _, _, err := m.StakeToProposal("PROPOSE", "a1", "P1", 50, stakeregistry.KindMandatorySelf, 0, "issue-1"); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if err := m.BurnAllStakes("FINALIZE", 10, "issue-1"); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if m.Locked("a1") != 0 {
		t.Fatalf("expected no locked CP after burn, got %d", m.Locked("a1"))
	}
}

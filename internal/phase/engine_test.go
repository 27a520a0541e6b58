package phase

import "testing"

func TestEngineAdvancesOnlyWhenAllComplete(t *testing.T) {
	var transitions int
	e := NewEngine(0, 1, []string{"a1", "a2"}, 100,
		func(Phase, string, uint64) error { return nil },
		func(from, to Phase, tick uint64) error { transitions++; return nil },
	)

	e.MarkComplete("a1")
	if err := e.Tick(0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if e.Current().Kind != KindPropose {
		t.Fatalf("expected to remain in PROPOSE, got %s", e.Current())
	}

	e.MarkComplete("a2")
	if err := e.Tick(1); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if e.Current().Kind != KindStake {
		t.Fatalf("expected to advance to STAKE, got %s", e.Current())
	}
	if transitions != 1 {
		t.Fatalf("expected 1 transition, got %d", transitions)
	}
}

func TestEngineKicksOutOnThinkTickBudget(t *testing.T) {
	var kicked []string
	e := NewEngine(0, 1, []string{"a1", "a2"}, 2,
		func(ph Phase, agentUID string, tick uint64) error { kicked = append(kicked, agentUID); return nil },
		func(Phase, Phase, uint64) error { return nil },
	)

	e.MarkComplete("a1")
	if err := e.Tick(0); err != nil {
		t.Fatalf("tick 0: %v", err)
	}
	if err := e.Tick(1); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if len(kicked) != 1 || kicked[0] != "a2" {
		t.Fatalf("expected a2 kicked out once, got %v", kicked)
	}
}

func TestEngineZeroThinkTicksKicksOutImmediately(t *testing.T) {
	var kicked []string
	e := NewEngine(0, 1, []string{"a1"}, 0,
		func(ph Phase, agentUID string, tick uint64) error { kicked = append(kicked, agentUID); return nil },
		func(Phase, Phase, uint64) error { return nil },
	)
	if err := e.Tick(0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(kicked) != 1 {
		t.Fatalf("expected immediate kick-out with MaxThinkTicks=0, got %v", kicked)
	}
	if e.Current().Kind != KindStake {
		t.Fatalf("expected transition past PROPOSE, got %s", e.Current())
	}
}

func TestEngineNoOpAtTerminal(t *testing.T) {
	e := NewEngine(0, 0, []string{"a1"}, 1,
		func(Phase, string, uint64) error { return nil },
		func(Phase, Phase, uint64) error { return nil },
	)
	e.MarkComplete("a1")
	if err := e.Tick(0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !e.Current().Terminal() {
		t.Fatalf("expected FINALIZE, got %s", e.Current())
	}
	if err := e.Tick(1); err != nil {
		t.Fatalf("tick at terminal: %v", err)
	}
	if !e.Current().Terminal() {
		t.Fatalf("expected to remain at FINALIZE")
	}
}

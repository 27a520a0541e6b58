package phase

import "testing"

func TestSequenceOrdering(t *testing.T) {
	seq := Sequence(2, 2)
	want := []string{
		"PROPOSE",
		"FEEDBACK_1", "REVISE_1",
		"FEEDBACK_2", "REVISE_2",
		"STAKE_1", "STAKE_2",
		"FINALIZE",
	}
	if len(seq) != len(want) {
		t.Fatalf("expected %d phases, got %d", len(want), len(seq))
	}
	for i, p := range seq {
		if p.String() != want[i] {
			t.Fatalf("phase %d: expected %s, got %s", i, want[i], p.String())
		}
	}
}

func TestTerminalOnlyAtFinalize(t *testing.T) {
	seq := Sequence(1, 1)
	for _, p := range seq[:len(seq)-1] {
		if p.Terminal() {
			t.Fatalf("phase %s should not be terminal", p.String())
		}
	}
	if !seq[len(seq)-1].Terminal() {
		t.Fatalf("expected the final phase to be terminal")
	}
}

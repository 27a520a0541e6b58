package issue

import (
	"testing"

	"github.com/roundtable/rtc/internal/rtcconfig"
)

func TestIsAssigned(t *testing.T) {
	iss := New("issue-1", "Should we ship?", []string{"a1", "a2"}, rtcconfig.Default(), 0)
	if !iss.IsAssigned("a1") {
		t.Fatalf("expected a1 to be assigned")
	}
	if iss.IsAssigned("a3") {
		t.Fatalf("expected a3 to not be assigned")
	}
}

func TestCloseMarksTerminal(t *testing.T) {
	iss := New("issue-1", "Should we ship?", []string{"a1"}, rtcconfig.Default(), 0)
	if iss.Terminal {
		t.Fatalf("expected issue to start non-terminal")
	}
	iss.Close("Pa1@v1")
	if !iss.Terminal {
		t.Fatalf("expected issue to be terminal after close")
	}
	if iss.Winner != "Pa1@v1" {
		t.Fatalf("expected winner to be recorded, got %s", iss.Winner)
	}
}

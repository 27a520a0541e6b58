package ledger

import (
	"errors"
	"testing"
)

func TestAppendAssignsSequentialSeq(t *testing.T) {
	l := New(nil)
	for i := 0; i < 3; i++ {
		seq, err := l.Append(Event{Tick: uint64(i), Type: EventAgentReady})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if seq != uint64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, seq)
		}
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 events, got %d", l.Len())
	}
}

func TestAppendRejectsAfterFinalize(t *testing.T) {
	l := New(nil)
	if _, err := l.Append(Event{Type: EventFinalize}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.Append(Event{Type: EventAgentReady}); err != ErrFinalized {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}
}

func TestRangeInclusiveBounds(t *testing.T) {
	l := New(nil)
	for i := 0; i < 5; i++ {
		if _, err := l.Append(Event{Tick: uint64(i), Type: EventAgentReady}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got := l.Range(2, 4)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Seq != 2 || got[2].Seq != 4 {
		t.Fatalf("unexpected range bounds: %+v", got)
	}
}

func TestVerifyDetectsMonotonicity(t *testing.T) {
	l := New(nil)
	for i := 0; i < 4; i++ {
		if _, err := l.Append(Event{Type: EventAgentReady}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := l.Verify(); err != nil {
		t.Fatalf("expected valid ledger, got %v", err)
	}

	l.events[2].Seq = l.events[1].Seq
	if err := l.Verify(); !errors.Is(err, ErrDuplicateSeq) {
		t.Fatalf("expected ErrDuplicateSeq for a repeated seq, got %v", err)
	}
}

func TestCanonicalPayloadSortsKeys(t *testing.T) {
	e := Event{Payload: map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}}
	b, err := e.CanonicalPayload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"a":2,"b":1,"c":{"y":2,"z":1}}`
	if string(b) != want {
		t.Fatalf("expected %s, got %s", want, string(b))
	}
}

func TestCanonicalPayloadNilPayload(t *testing.T) {
	e := Event{}
	b, err := e.CanonicalPayload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "null" {
		t.Fatalf("expected null, got %s", string(b))
	}
}

type fakeSink struct {
	events []Event
}

func (f *fakeSink) Write(e Event) {
	f.events = append(f.events, e)
}

func TestAppendWritesToSink(t *testing.T) {
	sink := &fakeSink{}
	l := New(sink)
	if _, err := l.Append(Event{Type: EventAgentReady}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("expected sink to receive 1 event, got %d", len(sink.events))
	}
}

package ledger

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFinalized is returned when an append is attempted after the issue has
// reached FINALIZE, per §4.1: "No event may be appended after
// FINALIZE for the issue."
var ErrFinalized = errors.New("ledger: issue already finalized")

// ErrDuplicateSeq is a fatal error per §7: "duplicate sequence
// number" must abort the run.
var ErrDuplicateSeq = errors.New("ledger: duplicate sequence number")

// Ledger is the append-only, sequence-numbered source of truth for a
// single consensus run (§4.1). It is single-writer: Append serializes
// through a mutex so the Orchestrator's single commit path (§5) is
// the only mutator.
type Ledger struct {
	mu        sync.Mutex
	events    []Event
	finalized bool
	sink      Sink
}

// Sink is a passive, best-effort persistence target for ledger events.
// It never participates in the replay guarantee.
type Sink interface {
	Write(Event)
}

// New constructs an empty ledger, optionally backed by a passive sink.
func New(sink Sink) *Ledger {
	return &Ledger{sink: sink}
}

// Append assigns the next sequence number to the event and commits it.
// It returns ErrFinalized if the issue has already reached FINALIZE.
func (l *Ledger) Append(e Event) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finalized {
		return 0, ErrFinalized
	}

	e.Seq = uint64(len(l.events)) + 1
	l.events = append(l.events, e)

	if e.Type == EventFinalize {
		l.finalized = true
	}
	if l.sink != nil {
		l.sink.Write(e)
	}
	return e.Seq, nil
}

// Range returns events with sequence numbers in [from, to] inclusive.
// A zero `to` means "through the latest event".
func (l *Ledger) Range(from, to uint64) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if to == 0 || to > uint64(len(l.events)) {
		to = uint64(len(l.events))
	}
	if from < 1 {
		from = 1
	}
	if from > to {
		return nil
	}
	out := make([]Event, 0, to-from+1)
	for _, e := range l.events[from-1 : to] {
		out = append(out, e)
	}
	return out
}

// All returns every committed event in commit order.
func (l *Ledger) All() []Event {
	return l.Range(1, 0)
}

// Len reports the number of committed events.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Finalized reports whether FINALIZE has already been committed.
func (l *Ledger) Finalized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.finalized
}

// Verify checks ledger monotonicity: sequence numbers strictly increasing
// starting at 1, with no duplicates or gaps (§8 property 2).
func (l *Ledger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[uint64]struct{}, len(l.events))
	var prev uint64
	for _, e := range l.events {
		if _, dup := seen[e.Seq]; dup || e.Seq != prev+1 {
			return fmt.Errorf("%w: seq %d", ErrDuplicateSeq, e.Seq)
		}
		seen[e.Seq] = struct{}{}
		prev = e.Seq
	}
	return nil
}

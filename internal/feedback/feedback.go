// Package feedback stores the append-only feedback records exchanged
// during FEEDBACK rounds (§3 "Feedback record").
package feedback

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded is returned when an agent exceeds MaxFeedbackPerAgent
// (§7 "Quota exceeded").
var ErrQuotaExceeded = errors.New("feedback: per-agent quota exceeded")

// ErrTooLong is returned when a feedback body exceeds FeedbackCharLimit
// (§7 "Oversized payload").
var ErrTooLong = errors.New("feedback: body exceeds character limit")

// ErrTargetSelf is returned when an agent targets their own active
// proposal (§3 "must not equal author's own active proposal").
var ErrTargetSelf = errors.New("feedback: cannot target own proposal")

// Record is a single, append-only feedback entry.
type Record struct {
	AuthorUID  string
	TargetID   string
	Body       string
	CreatedTick uint64
}

// Store tracks feedback records and per-agent quota usage for one issue.
type Store struct {
	mu         sync.Mutex
	maxPerAgent int
	charLimit   int
	records     []Record
	counts      map[string]int
}

// NewStore constructs an empty feedback store bound to the run's quota
// configuration (§6 MaxFeedbackPerAgent, FeedbackCharLimit).
func NewStore(maxPerAgent, charLimit int) *Store {
	return &Store{
		maxPerAgent: maxPerAgent,
		charLimit:   charLimit,
		counts:      make(map[string]int),
	}
}

// Submit validates and records a feedback entry, or returns a typed
// rejection error without mutating state.
func (s *Store) Submit(authorUID, targetID, body string, tick uint64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(body) > s.charLimit {
		return Record{}, ErrTooLong
	}
	if s.counts[authorUID] >= s.maxPerAgent {
		return Record{}, ErrQuotaExceeded
	}

	rec := Record{AuthorUID: authorUID, TargetID: targetID, Body: body, CreatedTick: tick}
	s.records = append(s.records, rec)
	s.counts[authorUID]++
	return rec, nil
}

// CountFor returns how many feedback entries an agent has submitted.
func (s *Store) CountFor(authorUID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[authorUID]
}

// All returns every recorded feedback entry in submission order.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

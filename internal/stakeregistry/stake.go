// Package stakeregistry implements the atomic stake ledger and the
// conviction-weighted scoring engine (§4.4).
package stakeregistry

// Kind distinguishes mandatory self-stakes from voluntary stakes placed
// during STAKE rounds.
type Kind string

const (
	KindMandatorySelf Kind = "mandatory-self"
	KindVoluntary     Kind = "voluntary"
)

// Record is a single atomic stake (§3 "Stake record"). Conviction
// accrues per record, never per (agent, proposal) pair (Open Question 3).
type Record struct {
	ID           string
	AgentUID     string
	ProposalID   string
	Amount       int64
	OriginTick   uint64
	LastMoveTick uint64
	Rounds       int // consecutive-rounds-held counter `r`
	Kind         Kind
}

// Snapshot is an immutable copy of a Record safe to hand to callers outside
// the registry's lock.
type Snapshot = Record

package proposal

import (
	"errors"
	"sync"

	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/stakeregistry"
)

// ErrAlreadyActive is returned when an agent who already has an active
// proposal version attempts to submit a new distinct proposal (§4.3
// submit: "requires no active proposal for this agent").
var ErrAlreadyActive = errors.New("proposal: agent already has an active proposal")

// ErrNotOwner is returned when an agent attempts to revise a proposal
// line they do not author.
var ErrNotOwner = errors.New("proposal: not the author of this proposal line")

// ErrNotFound is returned for lookups against unknown proposal IDs.
var ErrNotFound = errors.New("proposal: not found")

// CreditPort is the narrow slice of the Credit Manager the Proposal Graph
// needs, a narrow state-port interface in the same style as the
// governance engine's state dependency.
type CreditPort interface {
	StakeToProposal(phase, agentUID, proposalID string, amount int64, kind stakeregistry.Kind, tick uint64, issueID string) (stakeID string, ok bool, err error)
	TransferStake(phase, stakeID, oldProposalID, newProposalID string, tick uint64, issueID string) error
	DeductWithAutoTap(phase, agentUID, selfStakeID string, amount int64, reason string, tick uint64, issueID string) (bool, error)
}

// Graph is the versioned proposal store for a single issue (§4.3).
type Graph struct {
	mu         sync.Mutex
	issueID    string
	ledger     *ledger.Ledger
	credit     CreditPort
	selfStake  int64
	proposals  map[string]*Proposal
	activeLine map[string]string // authorUID -> active proposal ID
	noAction   *Proposal
}

// NewGraph constructs an empty proposal graph for the given issue,
// seeding the canonical NoAction proposal (§3).
func NewGraph(issueID string, l *ledger.Ledger, credit CreditPort, selfStake int64) *Graph {
	noAction := &Proposal{
		ID:        ID(NoActionAuthor, 1),
		AuthorUID: NoActionAuthor,
		IssueID:   issueID,
		Revision:  1,
		Body:      Body{Title: "No Action", Action: "Take no action on this issue."},
		Active:    true,
	}
	return &Graph{
		issueID:    issueID,
		ledger:     l,
		credit:     credit,
		selfStake:  selfStake,
		proposals:  map[string]*Proposal{noAction.ID: noAction},
		activeLine: make(map[string]string),
		noAction:   noAction,
	}
}

// NoActionID returns the canonical NoAction proposal's ID.
func (g *Graph) NoActionID() string {
	return g.noAction.ID
}

// Submit creates v1 of a new proposal line and applies the mandatory
// self-stake. On insufficient CP, the proposal is rejected and no
// version is created (§4.3 submit).
func (g *Graph) Submit(phase, agentUID string, body Body, tick uint64) (*Proposal, error) {
	g.mu.Lock()
	if _, exists := g.activeLine[agentUID]; exists {
		g.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	g.mu.Unlock()

	id := ID(agentUID, 1)
	stakeID, ok, err := g.credit.StakeToProposal(phase, agentUID, id, g.selfStake, stakeregistry.KindMandatorySelf, tick, g.issueID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, lerr := g.ledger.Append(ledger.Event{
			Tick:    tick,
			Phase:   phase,
			AgentID: agentUID,
			Type:    ledger.EventProposalRejected,
			Message: "insufficient_cp_for_stake",
			Payload: map[string]any{"proposal_id": id, "issue": g.issueID},
		}); lerr != nil {
			return nil, lerr
		}
		return nil, nil
	}

	p := &Proposal{
		ID:          id,
		AuthorUID:   agentUID,
		IssueID:     g.issueID,
		Revision:    1,
		Body:        body,
		CreatedTick: tick,
		UpdatedTick: tick,
		Active:      true,
		SelfStakeID: stakeID,
	}
	g.mu.Lock()
	g.proposals[id] = p
	g.activeLine[agentUID] = id
	g.mu.Unlock()

	if _, err := g.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventProposalAccepted,
		Payload: map[string]any{"proposal_id": id, "issue": g.issueID, "revision": 1},
	}); err != nil {
		return nil, err
	}
	return p, nil
}

// SubmitNoAction assigns the agent to the canonical NoAction proposal,
// applying the same mandatory self-stake per submitter (§4.3
// submit_noaction, RFC-003 parity).
func (g *Graph) SubmitNoAction(phase, agentUID string, tick uint64) (*Proposal, error) {
	g.mu.Lock()
	if _, exists := g.activeLine[agentUID]; exists {
		g.mu.Unlock()
		return g.noAction, nil
	}
	g.mu.Unlock()

	stakeID, ok, err := g.credit.StakeToProposal(phase, agentUID, g.noAction.ID, g.selfStake, stakeregistry.KindMandatorySelf, tick, g.issueID)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, lerr := g.ledger.Append(ledger.Event{
			Tick:    tick,
			Phase:   phase,
			AgentID: agentUID,
			Type:    ledger.EventInsufficientCredit,
			Message: "noaction_self_stake",
			Payload: map[string]any{"proposal_id": g.noAction.ID, "issue": g.issueID},
		}); lerr != nil {
			return nil, lerr
		}
		stakeID = ""
	}

	g.mu.Lock()
	g.activeLine[agentUID] = g.noAction.ID
	g.mu.Unlock()

	_, err = g.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventProposalAccepted,
		Payload: map[string]any{"proposal_id": g.noAction.ID, "issue": g.issueID, "no_action": true, "self_stake_id": stakeID},
	})
	return g.noAction, err
}

// Revise creates a new version of the agent's own active line, archiving
// the previous version and transferring its mandatory self-stake (§4.3
// revise).
func (g *Graph) Revise(phase, agentUID string, newBody Body, tick uint64) (*Proposal, int64, error) {
	g.mu.Lock()
	activeID, ok := g.activeLine[agentUID]
	if !ok {
		g.mu.Unlock()
		return nil, 0, ErrNotOwner
	}
	old, ok := g.proposals[activeID]
	if !ok || old.AuthorUID != agentUID {
		g.mu.Unlock()
		return nil, 0, ErrNotOwner
	}
	oldCopy := *old
	g.mu.Unlock()

	delta := Dissimilarity(oldCopy.Body, newBody)
	cost := RevisionCost(g.selfStake, delta)

	if cost > 0 {
		paid, err := g.credit.DeductWithAutoTap(phase, agentUID, oldCopy.SelfStakeID, cost, "revision_cost", tick, g.issueID)
		if err != nil {
			return nil, 0, err
		}
		if !paid {
			return nil, 0, nil
		}
	}

	newID := ID(agentUID, oldCopy.Revision+1)
	newP := &Proposal{
		ID:          newID,
		AuthorUID:   agentUID,
		IssueID:     g.issueID,
		ParentID:    oldCopy.ID,
		Revision:    oldCopy.Revision + 1,
		Body:        newBody,
		CreatedTick: oldCopy.CreatedTick,
		UpdatedTick: tick,
		Active:      true,
		SelfStakeID: oldCopy.SelfStakeID,
	}

	if err := g.credit.TransferStake(phase, oldCopy.SelfStakeID, oldCopy.ID, newID, tick, g.issueID); err != nil {
		return nil, 0, err
	}

	g.mu.Lock()
	old.Archived = true
	old.Active = false
	g.proposals[newID] = newP
	g.activeLine[agentUID] = newID
	g.mu.Unlock()

	_, err := g.ledger.Append(ledger.Event{
		Tick:    tick,
		Phase:   phase,
		AgentID: agentUID,
		Type:    ledger.EventRevisionRecorded,
		Payload: map[string]any{
			"old_proposal_id": oldCopy.ID,
			"new_proposal_id": newID,
			"delta":           delta,
			"cost":            cost,
			"issue":           g.issueID,
		},
	})
	return newP, cost, err
}

// ActiveProposalFor returns an agent's current active proposal version,
// or the canonical NoAction proposal if the agent was assigned to it. It
// returns false if the agent has no line at all.
func (g *Graph) ActiveProposalFor(agentUID string) (*Proposal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.activeLine[agentUID]
	if !ok {
		return nil, false
	}
	p, ok := g.proposals[id]
	return p, ok
}

// Get returns a proposal by ID.
func (g *Graph) Get(id string) (*Proposal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.proposals[id]
	return p, ok
}

// ActiveLines returns every author's current active proposal version
// (§4.5 "For each distinct author line, take its active version").
func (g *Graph) ActiveLines() []*Proposal {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Proposal, 0, len(g.activeLine))
	seen := make(map[string]bool)
	for _, id := range g.activeLine {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := g.proposals[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// HasSubmitted reports whether the agent has any active line (including
// NoAction assignment).
func (g *Graph) HasSubmitted(agentUID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.activeLine[agentUID]
	return ok
}

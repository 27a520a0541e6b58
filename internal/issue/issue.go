// Package issue models the single decision instance a consensus run
// resolves (§3 "Issue").
package issue

import "github.com/roundtable/rtc/internal/rtcconfig"

// Issue is the decision instance a run resolves. Exactly one issue is
// active per consensus run.
type Issue struct {
	ID              string
	ProblemStatement string
	Background      string
	Indicators      []string
	Goals           []string
	Attachments     []string
	AssignedAgents  []string
	Config          rtcconfig.Config
	CreatedTick     uint64
	Terminal        bool
	Winner          string
}

// New constructs an issue snapshot, freezing the configuration for the
// run (§9 "Dynamic configuration objects").
func New(id, problemStatement string, assigned []string, cfg rtcconfig.Config, createdTick uint64) *Issue {
	agents := make([]string, len(assigned))
	copy(agents, assigned)
	return &Issue{
		ID:               id,
		ProblemStatement: problemStatement,
		AssignedAgents:   agents,
		Config:           cfg,
		CreatedTick:      createdTick,
	}
}

// IsAssigned reports whether the given agent UID belongs to this issue.
func (i *Issue) IsAssigned(uid string) bool {
	for _, a := range i.AssignedAgents {
		if a == uid {
			return true
		}
	}
	return false
}

// Close marks the issue terminal with the declared winner.
func (i *Issue) Close(winnerProposalID string) {
	i.Terminal = true
	i.Winner = winnerProposalID
}

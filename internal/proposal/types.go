// Package proposal implements the versioned proposal graph (§4.3).
package proposal

import "fmt"

// NoActionAuthor is the shared author tag of the canonical NoAction
// proposal (§3 "Canonical NoAction proposal").
const NoActionAuthor = "NOACTION"

// Body holds the author-supplied content of a proposal version.
type Body struct {
	Title     string
	Action    string
	Rationale string
	Impact    string
	Risk      string
	Notes     string
	Refs      []string
}

// Proposal is a single immutable version in an author's proposal line
// (§3 "Proposal (versioned)").
type Proposal struct {
	ID          string
	AuthorUID   string
	IssueID     string
	ParentID    string
	Revision    int
	Body        Body
	CreatedTick uint64
	UpdatedTick uint64
	Archived    bool
	Active      bool

	// SelfStakeID is the mandatory self-stake record bound to this
	// version, or "" for the canonical NoAction line's per-submitter
	// stakes (tracked separately, keyed by submitter).
	SelfStakeID string
}

// ID formats a proposal identifier of the form P<author>@v<n> (§3).
func ID(authorUID string, revision int) string {
	return fmt.Sprintf("P%s@v%d", authorUID, revision)
}

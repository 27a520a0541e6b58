package orchestrator

import (
	"fmt"
	"sync"

	"github.com/roundtable/rtc/internal/agent"
	"github.com/roundtable/rtc/internal/credit"
	"github.com/roundtable/rtc/internal/feedback"
	"github.com/roundtable/rtc/internal/issue"
	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/phase"
	"github.com/roundtable/rtc/internal/proposal"
	"github.com/roundtable/rtc/internal/rtcapi/auth"
	"github.com/roundtable/rtc/internal/rtcconfig"
	"github.com/roundtable/rtc/internal/rtcmetrics"
	"github.com/roundtable/rtc/internal/stakeregistry"
)

// Orchestrator is the single-writer driver for one consensus run. Every
// public action serializes through mu, matching §5's "single
// commit path" guarantee.
type Orchestrator struct {
	mu sync.Mutex

	issue   *issue.Issue
	roster  *agent.Roster
	ledger  *ledger.Ledger
	credit  *credit.Manager
	graph   *proposal.Graph
	fb      *feedback.Store
	registry *stakeregistry.Registry
	cfg     rtcconfig.Config

	tick        uint64
	phaseEngine *phase.Engine

	// boundarySeq[j] is the ledger length captured the instant STAKE
	// round j began — the blind-staking visibility boundary for that
	// round (§4.4 "Blind staking").
	boundarySeq map[int]uint64

	finalized    bool
	winnerID     string
	winnerScore  float64

	metrics  *rtcmetrics.Metrics
	verifier *auth.Verifier
}

// SetMetrics attaches a Prometheus metrics bundle. It is optional: a nil
// bundle (the default) disables instrumentation entirely.
func (o *Orchestrator) SetMetrics(m *rtcmetrics.Metrics) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.metrics = m
}

// SetVerifier attaches the JWT verifier every action's credential is
// checked against. It is optional: a nil verifier (the default, and
// what in-process tests use with opaque roster credentials) falls back
// to a raw credential string match against the roster. A real HTTP
// deployment must set this so the credential's signature, issuer, and
// expiry are enforced per action, not just at mint time.
func (o *Orchestrator) SetVerifier(v *auth.Verifier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verifier = v
}

// New constructs an Orchestrator for a freshly created issue and agent
// roster (§2 "Control flow"). It returns an error if the initial
// invite-payment award fails, which can only happen if
// StandardInvitePayment exceeds MaximumCredit — a fatal configuration
// inconsistency per §7 that rtcconfig.Validate should already have
// rejected before the run ever got here.
func New(iss *issue.Issue, roster *agent.Roster, l *ledger.Ledger) (*Orchestrator, error) {
	cfg := iss.Config
	registry := stakeregistry.New(stakeregistry.Params{
		MaxConvictionMultiplier:    cfg.MaxConvictionMultiplier,
		ConvictionTargetFraction:  cfg.ConvictionTargetFraction,
		ConvictionSaturationRounds: cfg.ConvictionSaturationRounds,
	})
	creditMgr := credit.New(l, registry, cfg.MaximumCredit, cfg.ProposalSelfStake)
	graph := proposal.NewGraph(iss.ID, l, creditMgr, cfg.ProposalSelfStake)
	fb := feedback.NewStore(cfg.MaxFeedbackPerAgent, cfg.FeedbackCharLimit)

	o := &Orchestrator{
		issue:       iss,
		roster:      roster,
		ledger:      l,
		credit:      creditMgr,
		graph:       graph,
		fb:          fb,
		registry:    registry,
		cfg:         cfg,
		boundarySeq: make(map[int]uint64),
	}

	for _, uid := range iss.AssignedAgents {
		roster.AssignIssue(uid, iss.ID)
		if _, err := creditMgr.Award(phase.Phase{Kind: phase.KindPropose}.String(), uid, cfg.StandardInvitePayment, "invite_payment", 0, iss.ID); err != nil {
			return nil, fmt.Errorf("orchestrator: invite payment for %s: %w", uid, err)
		}
	}

	o.phaseEngine = phase.NewEngine(cfg.RevisionCycles, cfg.StakeRounds, iss.AssignedAgents, cfg.MaxThinkTicks, o.kickOut, o.onTransition)
	return o, nil
}

// Phase returns the current phase tag.
func (o *Orchestrator) Phase() phase.Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phaseEngine.Current()
}

// Tick returns the current logical tick.
func (o *Orchestrator) Tick() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tick
}

// Finalized reports whether FINALIZE has been reached.
func (o *Orchestrator) Finalized() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.finalized
}

// Winner returns the finalized winning proposal ID and its score, if the
// run has reached FINALIZE.
func (o *Orchestrator) Winner() (string, float64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.winnerID, o.winnerScore, o.finalized
}

// authenticate resolves a credential to an agent bound to this issue. It
// is the first step of every action per §4.6's validation order. When a
// Verifier is attached, the credential is parsed and checked for a valid
// HS256 signature, the expected issuer, and a non-expired TTL before the
// claimed agent UID is ever trusted; without one (the default for
// in-process tests using opaque credentials) it falls back to a raw
// string match against the roster.
func (o *Orchestrator) authenticate(credential string) (agent.Agent, ActionResult, bool) {
	var a agent.Agent
	var ok bool

	if o.verifier != nil {
		claims, err := o.verifier.Verify(credential)
		if err != nil {
			return agent.Agent{}, rejected(ResultRejectedUnauthenticated, "invalid or expired credential"), false
		}
		a, ok = o.roster.Get(claims.AgentUID)
		if !ok || a.Credential != credential {
			return agent.Agent{}, rejected(ResultRejectedUnauthenticated, "unknown credential"), false
		}
	} else {
		a, ok = o.roster.Authenticate(credential)
		if !ok {
			return agent.Agent{}, rejected(ResultRejectedUnauthenticated, "unknown credential"), false
		}
	}

	issueID, assigned := o.roster.AssignedIssue(a.UID)
	if !assigned || issueID != o.issue.ID {
		return agent.Agent{}, rejected(ResultRejectedUnauthenticated, "agent not assigned to active issue"), false
	}
	return a, ActionResult{}, true
}

// requirePhase checks the current phase's Kind matches what the action
// requires (§4.6 "phase admissibility").
func (o *Orchestrator) requirePhase(kind phase.Kind) (ActionResult, bool) {
	if o.phaseEngine.Current().Kind != kind {
		return rejected(ResultRejectedInvalidPhase, "action not valid in current phase"), false
	}
	return ActionResult{}, true
}

// Package rtcconfig loads and validates the immutable run configuration
// frozen at the start of a consensus run (§6, §9 "Dynamic
// configuration objects").
package rtcconfig

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxStakeRoundsCeiling bounds StakeRounds so a run is guaranteed to reach
// FINALIZE in finitely many ticks (Open Question 4).
const MaxStakeRoundsCeiling = 1000

// UnlimitedCredit represents an unbounded MaximumCredit.
const UnlimitedCredit = math.MaxInt64

// Config is the frozen mechanism configuration shared by the Phase Engine
// and Credit Manager. Agents only ever see the agent-scoped subset exposed
// by Agent.
type Config struct {
	StandardInvitePayment int64 `yaml:"standard_invite_payment"`
	MaximumCredit         int64 `yaml:"maximum_credit"`
	ProposalSelfStake     int64 `yaml:"proposal_self_stake"`
	MaxThinkTicks         int64 `yaml:"max_think_ticks"`
	KickOutPenalty        int64 `yaml:"kick_out_penalty"`

	FeedbackStake      int64 `yaml:"feedback_stake"`
	MaxFeedbackPerAgent int  `yaml:"max_feedback_per_agent"`
	FeedbackCharLimit   int  `yaml:"feedback_char_limit"`

	RevisionCycles int `yaml:"revision_cycles"`
	StakeRounds    int `yaml:"stake_rounds"`

	MaxConvictionMultiplier   float64 `yaml:"max_conviction_multiplier"`
	ConvictionTargetFraction float64 `yaml:"conviction_target_fraction"`
	ConvictionSaturationRounds int   `yaml:"conviction_saturation_rounds"`

	RandomSeed int64 `yaml:"random_seed"`
}

// Default returns the configuration defaults enumerated in §6.
func Default() Config {
	return Config{
		StandardInvitePayment:     100,
		MaximumCredit:             UnlimitedCredit,
		ProposalSelfStake:         50,
		MaxThinkTicks:             3,
		KickOutPenalty:            0,
		FeedbackStake:             5,
		MaxFeedbackPerAgent:       3,
		FeedbackCharLimit:         500,
		RevisionCycles:            2,
		StakeRounds:               1,
		MaxConvictionMultiplier:   2.0,
		ConvictionTargetFraction:  0.98,
		ConvictionSaturationRounds: 5,
		RandomSeed:                0,
	}
}

// Load reads the YAML configuration from disk, applies it over the
// defaults, and validates the result. A validation failure is a fatal
// configuration error per §7.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("rtcconfig: config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("rtcconfig: open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("rtcconfig: decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the fatal-configuration-error list in §7 plus
// Open Question 4's StakeRounds ceiling.
func (c Config) Validate() error {
	if c.StandardInvitePayment < 0 {
		return fmt.Errorf("rtcconfig: standard_invite_payment must be >= 0")
	}
	if c.MaximumCredit <= 0 {
		return fmt.Errorf("rtcconfig: maximum_credit must be > 0")
	}
	if c.StandardInvitePayment > c.MaximumCredit {
		return fmt.Errorf("rtcconfig: standard_invite_payment must not exceed maximum_credit")
	}
	if c.ProposalSelfStake <= 0 {
		return fmt.Errorf("rtcconfig: proposal_self_stake must be > 0")
	}
	if c.ProposalSelfStake > c.MaximumCredit {
		return fmt.Errorf("rtcconfig: proposal_self_stake must not exceed maximum_credit")
	}
	if c.MaxThinkTicks < 0 {
		return fmt.Errorf("rtcconfig: max_think_ticks must be >= 0")
	}
	if c.KickOutPenalty < 0 {
		return fmt.Errorf("rtcconfig: kick_out_penalty must be >= 0")
	}
	if c.FeedbackStake < 0 {
		return fmt.Errorf("rtcconfig: feedback_stake must be >= 0")
	}
	if c.MaxFeedbackPerAgent < 0 {
		return fmt.Errorf("rtcconfig: max_feedback_per_agent must be >= 0")
	}
	if c.FeedbackCharLimit <= 0 {
		return fmt.Errorf("rtcconfig: feedback_char_limit must be > 0")
	}
	if c.RevisionCycles < 0 {
		return fmt.Errorf("rtcconfig: revision_cycles must be >= 0")
	}
	if c.StakeRounds <= 0 {
		return fmt.Errorf("rtcconfig: stake_rounds must be >= 1")
	}
	if c.StakeRounds > MaxStakeRoundsCeiling {
		return fmt.Errorf("rtcconfig: stake_rounds exceeds ceiling of %d", MaxStakeRoundsCeiling)
	}
	if c.MaxConvictionMultiplier < 1 {
		return fmt.Errorf("rtcconfig: max_conviction_multiplier must be >= 1")
	}
	if c.ConvictionTargetFraction <= 0 || c.ConvictionTargetFraction >= 1 {
		return fmt.Errorf("rtcconfig: conviction_target_fraction must be in (0,1)")
	}
	if c.ConvictionSaturationRounds <= 0 {
		return fmt.Errorf("rtcconfig: conviction_saturation_rounds must be > 0")
	}
	return nil
}

// AgentView is the agent-scoped subset of the configuration handed to
// external agent brains. Mechanism-internal knobs (RandomSeed, penalty
// amounts) are withheld.
type AgentView struct {
	ProposalSelfStake   int64 `json:"proposal_self_stake"`
	MaxThinkTicks       int64 `json:"max_think_ticks"`
	FeedbackStake       int64 `json:"feedback_stake"`
	MaxFeedbackPerAgent int   `json:"max_feedback_per_agent"`
	FeedbackCharLimit   int   `json:"feedback_char_limit"`
	RevisionCycles      int   `json:"revision_cycles"`
	StakeRounds         int   `json:"stake_rounds"`
}

// Agent projects the subset of Config an agent brain is allowed to see.
func (c Config) Agent() AgentView {
	return AgentView{
		ProposalSelfStake:   c.ProposalSelfStake,
		MaxThinkTicks:       c.MaxThinkTicks,
		FeedbackStake:       c.FeedbackStake,
		MaxFeedbackPerAgent: c.MaxFeedbackPerAgent,
		FeedbackCharLimit:   c.FeedbackCharLimit,
		RevisionCycles:      c.RevisionCycles,
		StakeRounds:         c.StakeRounds,
	}
}

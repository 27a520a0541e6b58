package ledger

import (
	"bytes"
	"encoding/json"
	"sort"
)

// EventType enumerates the ledger event type tags named in §3.
type EventType string

const (
	EventCreditAward       EventType = "credit_award"
	EventCreditBurn        EventType = "credit_burn"
	EventStakeRecorded     EventType = "stake_recorded"
	EventStakeSwitched     EventType = "stake_switched"
	EventStakeWithdrawn    EventType = "stake_withdrawn"
	EventConvictionUpdated EventType = "conviction_updated"
	EventConvictionSwitched EventType = "conviction_switched"
	EventProposalAccepted  EventType = "proposal_accepted"
	EventProposalRejected  EventType = "proposal_rejected"
	EventRevisionRecorded  EventType = "revision_recorded"
	EventFeedbackRecorded  EventType = "feedback_recorded"
	EventInsufficientCredit EventType = "insufficient_credit"
	EventAgentReady        EventType = "agent_ready"
	EventPhaseTransition   EventType = "phase_transition"
	EventPhaseTimeout      EventType = "phase_timeout"
	EventFinalize          EventType = "finalize"
)

// Event is a single, immutable entry in the append-only ledger.
type Event struct {
	Seq     uint64         `json:"seq"`
	Tick    uint64         `json:"tick"`
	Phase   string         `json:"phase"`
	AgentID string         `json:"agent_id,omitempty"`
	Type    EventType      `json:"event_type"`
	Message string         `json:"message,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// CanonicalPayload renders Payload as canonical JSON (sorted keys) so that
// replayed runs produce a byte-identical ledger, per §4.1 and the
// "Ledger schema" requirement in §6.
func (e Event) CanonicalPayload() ([]byte, error) {
	if e.Payload == nil {
		return []byte("null"), nil
	}
	return canonicalJSON(e.Payload)
}

func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

package rtcapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/roundtable/rtc/internal/orchestrator"
	"github.com/roundtable/rtc/internal/proposal"
)

type handlers struct {
	orch *orchestrator.Orchestrator
}

func bearerCredential(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(h, prefix) {
		return strings.TrimPrefix(h, prefix)
	}
	return ""
}

func writeResult(w http.ResponseWriter, res orchestrator.ActionResult) {
	status := http.StatusOK
	switch res.Code {
	case orchestrator.ResultOk:
		status = http.StatusOK
	case orchestrator.ResultRejectedUnauthenticated:
		status = http.StatusUnauthorized
	case orchestrator.ResultRejectedNotFound:
		status = http.StatusNotFound
	case orchestrator.ResultRejectedInvalidPhase, orchestrator.ResultRejectedInsufficientCredit,
		orchestrator.ResultRejectedQuotaExceeded, orchestrator.ResultRejectedSemantic:
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

type proposalBody struct {
	Title     string   `json:"title"`
	Action    string   `json:"action"`
	Rationale string   `json:"rationale"`
	Impact    string   `json:"impact,omitempty"`
	Risk      string   `json:"risk,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Refs      []string `json:"refs,omitempty"`
}

func (b proposalBody) toDomain() proposal.Body {
	return proposal.Body{
		Title:     b.Title,
		Action:    b.Action,
		Rationale: b.Rationale,
		Impact:    b.Impact,
		Risk:      b.Risk,
		Notes:     b.Notes,
		Refs:      b.Refs,
	}
}

func (h *handlers) submitProposal(w http.ResponseWriter, r *http.Request) {
	var body proposalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, h.orch.SubmitProposal(bearerCredential(r), body.toDomain()))
}

func (h *handlers) signalReady(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.orch.SignalReady(bearerCredential(r)))
}

func (h *handlers) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target_proposal_id"`
		Body   string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, h.orch.SubmitFeedback(bearerCredential(r), req.Target, req.Body))
}

func (h *handlers) submitRevision(w http.ResponseWriter, r *http.Request) {
	var body proposalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, h.orch.SubmitRevision(bearerCredential(r), body.toDomain()))
}

func (h *handlers) stakeAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProposalID string `json:"proposal_id"`
		Amount     int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, h.orch.StakeAdd(bearerCredential(r), req.ProposalID, req.Amount))
}

func (h *handlers) stakeSwitch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StakeID       string `json:"stake_id"`
		NewProposalID string `json:"new_proposal_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, h.orch.StakeSwitch(bearerCredential(r), req.StakeID, req.NewProposalID))
}

func (h *handlers) stakeWithdraw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StakeID string `json:"stake_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	writeResult(w, h.orch.StakeWithdraw(bearerCredential(r), req.StakeID))
}

func (h *handlers) queryState(w http.ResponseWriter, r *http.Request) {
	events, res := h.orch.QueryState(bearerCredential(r))
	if res.Code != orchestrator.ResultOk {
		writeResult(w, res)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(events)
}

func (h *handlers) tick(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.AdvanceTick(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

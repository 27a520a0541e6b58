package rtcapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roundtable/rtc/internal/agent"
	"github.com/roundtable/rtc/internal/issue"
	"github.com/roundtable/rtc/internal/ledger"
	"github.com/roundtable/rtc/internal/orchestrator"
	"github.com/roundtable/rtc/internal/rtcconfig"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	cfg := rtcconfig.Default()
	cfg.RevisionCycles = 0
	cfg.StakeRounds = 1

	roster := agent.NewRoster()
	roster.Invite(agent.Agent{UID: "a1", Credential: "cred-a1"})
	iss := issue.New("issue-1", "Ship it?", []string{"a1"}, cfg, 0)
	orch, err := orchestrator.New(iss, roster, ledger.New(nil))
	require.NoError(t, err)

	srv := httptest.NewServer(New(orch))
	t.Cleanup(srv.Close)
	return srv, "cred-a1"
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitProposalEndpoint(t *testing.T) {
	srv, cred := newTestServer(t)

	body, err := json.Marshal(map[string]any{"title": "Ship it", "action": "deploy"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/proposals", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+cred)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result orchestrator.ActionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, orchestrator.ResultOk, result.Code)
	require.NotEmpty(t, result.ProposalID)
}

func TestSubmitProposalEndpointRejectsBadCredential(t *testing.T) {
	srv, _ := newTestServer(t)

	body, err := json.Marshal(map[string]any{"title": "Ship it"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/proposals", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer nonsense")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTickEndpointAdvancesPhase(t *testing.T) {
	srv, cred := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/ready", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+cred)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tickResp, err := http.Post(srv.URL+"/v1/tick", "application/json", nil)
	require.NoError(t, err)
	defer tickResp.Body.Close()
	require.Equal(t, http.StatusOK, tickResp.StatusCode)

	// Past PROPOSE, a proposal submission is rejected for its phase.
	late, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/proposals", bytes.NewReader([]byte(`{"title":"late"}`)))
	require.NoError(t, err)
	late.Header.Set("Authorization", "Bearer "+cred)
	lateResp, err := http.DefaultClient.Do(late)
	require.NoError(t, err)
	defer lateResp.Body.Close()
	var result orchestrator.ActionResult
	require.NoError(t, json.NewDecoder(lateResp.Body).Decode(&result))
	require.Equal(t, orchestrator.ResultRejectedInvalidPhase, result.Code)
}

func TestQueryStateEndpointReturnsEvents(t *testing.T) {
	srv, cred := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/state", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+cred)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var events []ledger.Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.NotEmpty(t, events)
}

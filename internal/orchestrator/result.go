// Package orchestrator is the process-wide driver that exposes the
// action API to agents, advances ticks, dispatches to the Phase Engine,
// and commits all changes through the Ledger and Credit Manager (§4.6,
// §2 "Orchestrator").
package orchestrator

// ResultCode enumerates the Action API's error results (§6).
type ResultCode string

const (
	ResultOk                        ResultCode = "Ok"
	ResultRejectedInvalidPhase      ResultCode = "RejectedInvalidPhase"
	ResultRejectedUnauthenticated   ResultCode = "RejectedUnauthenticated"
	ResultRejectedInsufficientCredit ResultCode = "RejectedInsufficientCredit"
	ResultRejectedQuotaExceeded     ResultCode = "RejectedQuotaExceeded"
	ResultRejectedSemantic          ResultCode = "RejectedSemantic"
	ResultRejectedNotFound          ResultCode = "RejectedNotFound"
)

// ActionResult is the outcome of a single Action API call. Reason carries
// the specific detail of a rejection, e.g. FeedbackLimitReached under
// RejectedQuotaExceeded, or FeedbackTooLong and other semantic reasons
// under RejectedSemantic (§7).
type ActionResult struct {
	Code       ResultCode
	Reason     string
	ProposalID string
	StakeID    string
}

func ok(extra ...func(*ActionResult)) ActionResult {
	r := ActionResult{Code: ResultOk}
	for _, f := range extra {
		f(&r)
	}
	return r
}

func rejected(code ResultCode, reason string) ActionResult {
	return ActionResult{Code: code, Reason: reason}
}

// Package rtcapi exposes the Orchestrator's Action API over HTTP/JSON
// using chi, following gateway/routes/router.go's mux-and-middleware
// shape. It is a thin transport over the in-process Orchestrator.
package rtcapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roundtable/rtc/internal/orchestrator"
)

// New builds the Action API router bound to a single run's Orchestrator.
func New(o *orchestrator.Orchestrator) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	h := &handlers{orch: o}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/proposals", h.submitProposal)
		r.Post("/ready", h.signalReady)
		r.Post("/feedback", h.submitFeedback)
		r.Post("/revisions", h.submitRevision)
		r.Post("/stakes", h.stakeAdd)
		r.Post("/stakes/switch", h.stakeSwitch)
		r.Post("/stakes/withdraw", h.stakeWithdraw)
		r.Get("/state", h.queryState)
		r.Post("/tick", h.tick)
	})

	return r
}

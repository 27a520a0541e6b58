// Package rtcmetrics exposes Prometheus counters and gauges for a
// consensus run, using github.com/prometheus/client_golang the way the
// node's consensus service layer instruments its own hot path.
package rtcmetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the run's counters/gauges. The Orchestrator updates
// TicksProcessed, KickOuts and CurrentPhase; CPBurned, CPAwarded and
// ActionsRejected are registered but nothing in this module increments
// them.
type Metrics struct {
	TicksProcessed   prometheus.Counter
	KickOuts         prometheus.Counter
	CPBurned         prometheus.Counter
	CPAwarded        prometheus.Counter
	ActionsRejected  *prometheus.CounterVec
	CurrentPhase     prometheus.Gauge
}

// New constructs and registers the RTC metrics against the given
// registerer. Pass prometheus.NewRegistry() for test isolation or
// prometheus.DefaultRegisterer for process-wide export.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TicksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtc",
			Name:      "ticks_processed_total",
			Help:      "Total logical ticks advanced by the orchestrator.",
		}),
		KickOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtc",
			Name:      "kickouts_total",
			Help:      "Total agents kicked out for exceeding MaxThinkTicks.",
		}),
		CPBurned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtc",
			Name:      "cp_burned_total",
			Help:      "Total Conviction Points burned across all reasons.",
		}),
		CPAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rtc",
			Name:      "cp_awarded_total",
			Help:      "Total Conviction Points awarded to agents.",
		}),
		ActionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rtc",
			Name:      "actions_rejected_total",
			Help:      "Total rejected actions by result code.",
		}, []string{"code"}),
		CurrentPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rtc",
			Name:      "current_phase",
			Help:      "Kind of the current phase (0=PROPOSE, 1=FEEDBACK, 2=REVISE, 3=STAKE, 4=FINALIZE).",
		}),
	}

	reg.MustRegister(m.TicksProcessed, m.KickOuts, m.CPBurned, m.CPAwarded, m.ActionsRejected, m.CurrentPhase)
	return m
}

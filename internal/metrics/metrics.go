// Package metrics provides Prometheus metrics for the polling engine.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubemon",
		Subsystem: "poller",
		Name:      "cycles_total",
		Help:      "Total number of completed polling cycles.",
	}, []string{"platform"})

	CyclesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubemon",
		Subsystem: "poller",
		Name:      "cycles_skipped_total",
		Help:      "Ticks skipped because the previous cycle was still running.",
	}, []string{"platform"})

	CycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cubemon",
		Subsystem: "poller",
		Name:      "cycle_duration_seconds",
		Help:      "Wall-clock duration of one polling cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"platform"})

	ProbeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubemon",
		Subsystem: "probe",
		Name:      "failures_total",
		Help:      "Probes downgraded to offline after exhausting all attempts.",
	}, []string{"platform"})

	TaskFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cubemon",
		Subsystem: "poller",
		Name:      "task_failures_total",
		Help:      "Per-server tasks that failed unexpectedly and were omitted from a cycle.",
	}, []string{"platform"})

	OnlineServers = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cubemon",
		Subsystem: "fleet",
		Name:      "online_servers",
		Help:      "Servers reported online in the latest snapshot.",
	}, []string{"platform"})

	PlayersOnline = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cubemon",
		Subsystem: "fleet",
		Name:      "players_online",
		Help:      "Sum of current players in the latest snapshot.",
	}, []string{"platform"})
)

func init() {
	prometheus.MustRegister(
		CyclesTotal,
		CyclesSkipped,
		CycleDuration,
		ProbeFailures,
		TaskFailures,
		OnlineServers,
		PlayersOnline,
	)
}

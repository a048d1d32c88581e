// Package metrics holds the Prometheus collectors of the analytics service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PassDuration measures evaluation passes by trigger.
	PassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sellthrough_pass_duration_seconds",
			Help:    "Duration of seller sell-through evaluation passes in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"trigger"},
	)

	// NoticesSent counts delivered threshold notices.
	NoticesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellthrough_notices_sent_total",
			Help: "Total number of seller threshold notices delivered",
		},
		[]string{"tier"},
	)

	// NoticeFailures counts per-seller failures by stage.
	NoticeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellthrough_notice_failures_total",
			Help: "Total number of per-seller notice failures",
		},
		[]string{"stage"}, // stage: claim, send, outbox, flag
	)

	// FlagRepairs counts flags set from an already-sent outbox entry.
	FlagRepairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sellthrough_flag_repairs_total",
			Help: "Total number of seller flags repaired without re-sending",
		},
	)

	// PassesSkipped counts triggers dropped because a pass was already running.
	PassesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sellthrough_passes_skipped_total",
			Help: "Total number of evaluation triggers skipped",
		},
		[]string{"trigger"},
	)
)

// ObservePass records a finished pass.
func ObservePass(trigger string, d time.Duration) {
	PassDuration.WithLabelValues(trigger).Observe(d.Seconds())
}

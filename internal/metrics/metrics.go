// Package metrics exposes Prometheus metrics for extraction runs
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fgi_resolutions_total",
			Help: "Total number of resolved runs",
		},
		[]string{"stage", "source"},
	)

	Failures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fgi_failures_total",
			Help: "Total number of runs where every stage failed",
		},
	)

	StageMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fgi_stage_misses_total",
			Help: "Total number of stages that yielded no valid score",
		},
		[]string{"stage"},
	)

	LastScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fgi_last_score",
			Help: "Most recently resolved fear & greed score",
		},
	)

	LastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fgi_last_run_timestamp",
			Help: "Unix timestamp of the last run",
		},
	)

	RunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fgi_run_duration_seconds",
			Help:    "Run duration in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"status"}, // status: resolved|failed
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(Resolutions)
		prometheus.MustRegister(Failures)
		prometheus.MustRegister(StageMisses)
		prometheus.MustRegister(LastScore)
		prometheus.MustRegister(LastRun)
		prometheus.MustRegister(RunDuration)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordResolved records a run resolved by stage
func RecordResolved(stage, source string, score int, duration time.Duration) {
	Resolutions.WithLabelValues(stage, source).Inc()
	LastScore.Set(float64(score))
	LastRun.SetToCurrentTime()
	RunDuration.WithLabelValues("resolved").Observe(duration.Seconds())
}

// RecordFailed records a terminal failure
func RecordFailed(duration time.Duration) {
	Failures.Inc()
	LastRun.SetToCurrentTime()
	RunDuration.WithLabelValues("failed").Observe(duration.Seconds())
}

// RecordMiss records a stage that yielded nothing
func RecordMiss(stage string) {
	StageMisses.WithLabelValues(stage).Inc()
}

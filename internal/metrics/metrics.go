// Package metrics records pipeline outcomes and phase durations. Stagehand
// runs are short-lived CLI invocations, so metrics only leave the process
// through an explicit push to a Prometheus Pushgateway after the run.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stagehand",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of whole pipeline runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
		[]string{"outcome"},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stagehand",
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Duration of pipeline phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~13min
		},
		[]string{"phase"},
	)

	imageBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stagehand",
			Subsystem: "image",
			Name:      "builds_total",
			Help:      "Total number of golden image builds by result",
		},
		[]string{"result"},
	)

	imageBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stagehand",
			Subsystem: "image",
			Name:      "build_duration_seconds",
			Help:      "Duration of golden image builds in seconds",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 8), // 10s to ~21min
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		runsTotal,
		runDuration,
		phaseDuration,
		imageBuildsTotal,
		imageBuildDuration,
	)
}

// RecordRun records a finished pipeline run.
func RecordRun(outcome string, seconds float64) {
	runsTotal.WithLabelValues(outcome).Inc()
	runDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordPhase records the duration of one pipeline phase.
func RecordPhase(phase string, seconds float64) {
	phaseDuration.WithLabelValues(phase).Observe(seconds)
}

// RecordImageBuild records a finished golden image build.
func RecordImageBuild(result string, seconds float64) {
	imageBuildsTotal.WithLabelValues(result).Inc()
	imageBuildDuration.WithLabelValues(result).Observe(seconds)
}

// Push sends everything recorded so far to a Pushgateway. A no-op when
// gateway is empty, so callers can pass the raw environment value.
func Push(gateway, job string) error {
	if gateway == "" {
		return nil
	}
	return push.New(gateway, job).Gatherer(prometheus.DefaultGatherer).Push()
}

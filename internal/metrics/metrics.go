package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanpdf",
			Name:      "tool_invocations_total",
			Help:      "External tool invocations by operation and result (ok, error, timeout, cancelled)",
		},
		[]string{"operation", "result"},
	)

	toolLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scanpdf",
			Name:      "tool_duration_seconds",
			Help:      "Duration of external tool invocations by operation",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	stageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scanpdf",
			Name:      "stage_duration_seconds",
			Help:      "Duration of page stages by stage name",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	pagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanpdf",
			Name:      "pages_processed_total",
			Help:      "Pages processed by outcome (color, monochrome, blank, failed)",
		},
		[]string{"outcome"},
	)

	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scanpdf",
			Name:      "jobs_total",
			Help:      "Scan jobs by result (success, failed)",
		},
		[]string{"result"},
	)

	jobDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "scanpdf",
			Name:      "last_job_duration_seconds",
			Help:      "Wall-clock duration of the most recent scan job",
		},
	)
)

// Registry holds every scanpdf collector. It is separate from the default
// registry so a push only carries job metrics.
var Registry = prometheus.NewRegistry()

var initOnce sync.Once

// Init registers collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		Registry.MustRegister(toolInvocations, toolLatency, stageLatency, pagesProcessed, jobsTotal, jobDuration)
	})
}

// Push sends the registry to a Prometheus Pushgateway under job, grouped by
// instance. CLI runs are too short-lived to be scraped.
func Push(url, job, instance string) error {
	p := push.New(url, job).Gatherer(Registry)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	return p.Push()
}

// ObserveTool records one external tool invocation and its duration.
func ObserveTool(op, result string, dur time.Duration) {
	toolInvocations.WithLabelValues(op, result).Inc()
	toolLatency.WithLabelValues(op).Observe(dur.Seconds())
}

// ObserveStage records how long a page stage took.
func ObserveStage(stage string, dur time.Duration) {
	stageLatency.WithLabelValues(stage).Observe(dur.Seconds())
}

// IncPage counts a page that reached a terminal outcome.
func IncPage(outcome string) { pagesProcessed.WithLabelValues(outcome).Inc() }

// ObserveJob records a finished job and its wall-clock duration.
func ObserveJob(result string, dur time.Duration) {
	jobsTotal.WithLabelValues(result).Inc()
	jobDuration.Set(dur.Seconds())
}

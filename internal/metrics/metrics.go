// Package metrics provides Prometheus metrics for a bot run.
//
// The bot is a batch job, so nothing is scraped: when a Pushgateway URL is
// configured the collected metrics are pushed once at the end of the run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	namespace = "fastfingers"
	subsystem = "bot"
	jobName   = "fastfingers_bot"
)

// Run outcomes recorded by the status gauge
const (
	StatusSucceeded  = "succeeded"
	StatusSuppressed = "suppressed"
	StatusFailed     = "failed"
)

// Manager owns the metrics of one run
type Manager struct {
	registry *prometheus.Registry

	recordsParsed   prometheus.Counter
	membersListed   prometheus.Counter
	matches         *prometheus.CounterVec
	messagesPosted  prometheus.Counter
	stageDuration   *prometheus.HistogramVec
	runDuration     prometheus.Gauge
	lastRunStatus   *prometheus.GaugeVec
	lastSuccessUnix prometheus.Gauge
}

// NewManager creates a Manager with its own registry
func NewManager() *Manager {
	m := &Manager{registry: prometheus.NewRegistry()}

	m.recordsParsed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "records_parsed_total",
		Help: "Competitor records parsed from the ranking page.",
	})
	m.membersListed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "directory_members_total",
		Help: "Chat directory members considered for matching.",
	})
	m.matches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "directory_matches_total",
		Help: "Competitor records by directory match confidence.",
	}, []string{"confidence"})
	m.messagesPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "messages_posted_total",
		Help: "Messages handed to the notifier.",
	})
	m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name:    "stage_duration_seconds",
		Help:    "Duration of workflow stages.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})
	m.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "run_duration_seconds",
		Help: "Duration of the last run.",
	})
	m.lastRunStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "last_run_status",
		Help: "1 for the outcome of the last run, 0 for the others.",
	}, []string{"status"})
	m.lastSuccessUnix = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "last_success_timestamp_seconds",
		Help: "Unix time of the last successful run.",
	})

	m.registry.MustRegister(
		m.recordsParsed,
		m.membersListed,
		m.matches,
		m.messagesPosted,
		m.stageDuration,
		m.runDuration,
		m.lastRunStatus,
		m.lastSuccessUnix,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordsParsed counts parsed ranking rows
func (m *Manager) RecordsParsed(n int) {
	m.recordsParsed.Add(float64(n))
}

// DirectoryMatched records the directory size and the record count per match
// confidence (exact, pattern, none)
func (m *Manager) DirectoryMatched(members int, byConfidence map[string]int) {
	m.membersListed.Add(float64(members))
	for confidence, n := range byConfidence {
		m.matches.WithLabelValues(confidence).Add(float64(n))
	}
}

// MessagePosted counts one notifier call
func (m *Manager) MessagePosted() {
	m.messagesPosted.Inc()
}

// ObserveStage records how long a workflow stage took
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RunFinished records the outcome and duration of the run
func (m *Manager) RunFinished(status string, d time.Duration, at time.Time) {
	m.runDuration.Set(d.Seconds())
	for _, s := range []string{StatusSucceeded, StatusSuppressed, StatusFailed} {
		v := 0.0
		if s == status {
			v = 1
		}
		m.lastRunStatus.WithLabelValues(s).Set(v)
	}
	if status == StatusSucceeded {
		m.lastSuccessUnix.Set(float64(at.Unix()))
	}
}

// Push sends all metrics to a Pushgateway
func (m *Manager) Push(gatewayURL string) error {
	if gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, jobName).Gatherer(m.registry).Push(); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}

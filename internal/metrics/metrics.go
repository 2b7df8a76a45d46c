// Package metrics holds the Prometheus collectors for tool commands,
// searches and sandbox denials. Every collector lives on a private registry
// so several instances can coexist in one process (tests, embedded use).
// All methods are safe on a nil *Metrics.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	SearchFilesScanned prometheus.Counter
	SearchTimeouts     prometheus.Counter
	SearchesTotal      prometheus.Counter

	PathDenials *prometheus.CounterVec
}

// New creates a metrics collector with its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmfs_commands_total",
				Help: "Total number of tool commands executed",
			},
			[]string{"command", "status"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llmfs_command_duration_seconds",
				Help:    "Tool command duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"command"},
		),

		SearchFilesScanned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "llmfs_search_files_scanned_total",
				Help: "Files visited by searches",
			},
		),
		SearchTimeouts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "llmfs_search_timeouts_total",
				Help: "Searches that hit their wall-clock timeout",
			},
		),
		SearchesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "llmfs_searches_total",
				Help: "Searches run",
			},
		),

		PathDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llmfs_path_denials_total",
				Help: "Paths denied by the sandbox, by reason",
			},
			[]string{"reason"},
		),
	}
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordCommand counts a finished command
func (m *Metrics) RecordCommand(command string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.CommandsTotal.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordSearch counts a finished search
func (m *Metrics) RecordSearch(filesScanned int, timedOut bool) {
	if m == nil {
		return
	}
	m.SearchesTotal.Inc()
	m.SearchFilesScanned.Add(float64(filesScanned))
	if timedOut {
		m.SearchTimeouts.Inc()
	}
}

// RecordDenial counts a sandbox denial
func (m *Metrics) RecordDenial(reason string) {
	if m == nil {
		return
	}
	m.PathDenials.WithLabelValues(reason).Inc()
}

// Summary renders every non-zero counter as "name{labels} value" lines,
// sorted by name
func (m *Metrics) Summary() (string, error) {
	if m == nil {
		return "", nil
	}

	families, err := m.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if metric.GetCounter() == nil {
				continue
			}
			value := metric.GetCounter().GetValue()
			if value == 0 {
				continue
			}

			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}

	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

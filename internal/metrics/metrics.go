// Package metrics records repair workflow counters in a private Prometheus
// registry and exports them for node-exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "servicedesk"

// Metrics holds the repair collectors. A nil *Metrics is a valid no-op sink.
type Metrics struct {
	registry     *prometheus.Registry
	actions      *prometheus.CounterVec
	errors       *prometheus.CounterVec
	totalCost    prometheus.Histogram
	cargoRecords *prometheus.GaugeVec
}

// New creates collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_actions_total",
			Help:      "Repair actions applied to cargo notes, by action.",
		}, []string{"action"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_errors_total",
			Help:      "Repair actions that failed, by action and error kind.",
		}, []string{"action", "kind"}),
		totalCost: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repair_total_cost",
			Help:      "Total cost of completed repairs.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		cargoRecords: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cargo_records",
			Help:      "Cargo records currently stored, by status.",
		}, []string{"status"}),
	}
}

// ActionApplied counts a successful repair action.
func (m *Metrics) ActionApplied(action string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action).Inc()
}

// ActionFailed counts a failed repair action under its error kind.
func (m *Metrics) ActionFailed(action, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.errors.WithLabelValues(action, kind).Inc()
}

// RepairCompleted observes the final cost of a repair.
func (m *Metrics) RepairCompleted(totalCost float64) {
	if m == nil {
		return
	}
	m.totalCost.Observe(totalCost)
}

// SetCargoCounts replaces the per-status record gauge.
func (m *Metrics) SetCargoCounts(counts map[string]int) {
	if m == nil {
		return
	}
	m.cargoRecords.Reset()
	for status, count := range counts {
		m.cargoRecords.WithLabelValues(status).Set(float64(count))
	}
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteTextfile writes the registry in text exposition format. The write is
// atomic so the collector never reads a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

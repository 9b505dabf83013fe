// Package metrics counts scan activity with Prometheus collectors. A run owns
// its own registry; the CLI can dump it in the node_exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons used as the "reason" label of files_skipped_total.
const (
	SkipUnreadable = "unreadable"
	SkipBinary     = "binary"
	SkipOversize   = "oversize"
)

// Metrics holds the collectors for a single scan run. All methods are safe
// to call on a nil receiver, which disables collection.
type Metrics struct {
	registry *prometheus.Registry

	FilesScanned prometheus.Counter
	FilesSkipped *prometheus.CounterVec
	Findings     *prometheus.CounterVec
	RulesInert   prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		FilesScanned: f.NewCounter(prometheus.CounterOpts{
			Namespace: "keyleak",
			Name:      "files_scanned_total",
			Help:      "Total number of files whose content was scanned",
		}),
		FilesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyleak",
			Name:      "files_skipped_total",
			Help:      "Total number of selected files that could not be scanned",
		}, []string{"reason"}),
		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keyleak",
			Name:      "findings_total",
			Help:      "Total number of findings by rule",
		}, []string{"rule"}),
		RulesInert: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "keyleak",
			Name:      "rules_inert",
			Help:      "Number of rules whose pattern failed to compile",
		}),
	}
}

// IncrementFilesScanned increments files_scanned_total.
func (m *Metrics) IncrementFilesScanned() {
	if m == nil {
		return
	}
	m.FilesScanned.Inc()
}

// IncrementFilesSkipped increments files_skipped_total for reason.
func (m *Metrics) IncrementFilesSkipped(reason string) {
	if m == nil {
		return
	}
	m.FilesSkipped.WithLabelValues(reason).Inc()
}

// AddFinding counts one finding for rule.
func (m *Metrics) AddFinding(rule string) {
	if m == nil {
		return
	}
	m.Findings.WithLabelValues(rule).Inc()
}

// SetRulesInert records the inert rule count.
func (m *Metrics) SetRulesInert(n int) {
	if m == nil {
		return
	}
	m.RulesInert.Set(float64(n))
}

// Gatherer exposes the run registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

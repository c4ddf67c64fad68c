// Package metrics records run counters with Prometheus collectors and writes
// them to a node-exporter textfile when the run ends.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Recorder holds the collectors for one run on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SearchPages     prometheus.Counter
	SearchRows      prometheus.Histogram
	ProbeOutcomes   *prometheus.CounterVec
	Deployments     *prometheus.CounterVec
}

// New creates and registers the collectors. runID labels every series so
// textfiles from several runs can be told apart.
func New(runID string) *Recorder {
	labels := prometheus.Labels{"run_id": runID}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "sharesentry_requests_total",
				Help:        "Platform API requests by operation and HTTP status.",
				ConstLabels: labels,
			},
			[]string{"operation", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "sharesentry_request_duration_seconds",
				Help:        "Platform API request latency in seconds.",
				Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				ConstLabels: labels,
			},
			[]string{"operation"},
		),
		SearchPages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "sharesentry_search_pages_total",
				Help:        "Search result pages fetched.",
				ConstLabels: labels,
			},
		),
		SearchRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:        "sharesentry_search_page_rows",
				Help:        "Rows returned per search page.",
				Buckets:     []float64{0, 1, 10, 50, 100, 250, 500, 1000},
				ConstLabels: labels,
			},
		),
		ProbeOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "sharesentry_probe_outcomes_total",
				Help:        "Write-probe classifications by outcome.",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		Deployments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "sharesentry_decoy_deployments_total",
				Help:        "Decoy deployment attempts by result (deployed, failed).",
				ConstLabels: labels,
			},
			[]string{"result"},
		),
	}

	r.registry.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.SearchPages,
		r.SearchRows,
		r.ProbeOutcomes,
		r.Deployments,
	)
	return r
}

// ObserveRequest implements driven.MetricsRecorder.
func (r *Recorder) ObserveRequest(operation string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	r.RequestsTotal.WithLabelValues(operation, code).Inc()
	r.RequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SearchPage implements driven.MetricsRecorder.
func (r *Recorder) SearchPage(rows int) {
	r.SearchPages.Inc()
	r.SearchRows.Observe(float64(rows))
}

// ProbeOutcome implements driven.MetricsRecorder.
func (r *Recorder) ProbeOutcome(outcome domain.ProbeOutcome) {
	r.ProbeOutcomes.WithLabelValues(outcome.String()).Inc()
}

// DecoyDeployment implements driven.MetricsRecorder.
func (r *Recorder) DecoyDeployment(deployed bool) {
	result := "failed"
	if deployed {
		result = "deployed"
	}
	r.Deployments.WithLabelValues(result).Inc()
}

// Gatherer exposes the private registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

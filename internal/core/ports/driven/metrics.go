package driven

import (
	"time"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// MetricsRecorder receives run counters.
type MetricsRecorder interface {
	// ObserveRequest records one outbound platform call.
	ObserveRequest(operation string, status int, elapsed time.Duration)

	// SearchPage records one fetched search page and its row count.
	SearchPage(rows int)

	// ProbeOutcome records a probe classification.
	ProbeOutcome(outcome domain.ProbeOutcome)

	// DecoyDeployment records a deployment attempt.
	DecoyDeployment(deployed bool)
}

// NopMetrics discards everything.
type NopMetrics struct{}

// ObserveRequest implements MetricsRecorder.
func (NopMetrics) ObserveRequest(string, int, time.Duration) {}

// SearchPage implements MetricsRecorder.
func (NopMetrics) SearchPage(int) {}

// ProbeOutcome implements MetricsRecorder.
func (NopMetrics) ProbeOutcome(domain.ProbeOutcome) {}

// DecoyDeployment implements MetricsRecorder.
func (NopMetrics) DecoyDeployment(bool) {}

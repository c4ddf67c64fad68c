package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// Ensure WriteProber implements the interface.
var _ driving.WriteProber = (*WriteProber)(nil)

// WriteProber probes a list of targets and records the writable ones.
type WriteProber struct {
	prober  *Prober
	sink    driven.ResultSink
	workers int
}

// NewWriteProber creates a write-probe orchestrator.
func NewWriteProber(prober *Prober, sink driven.ResultSink, workers int) *WriteProber {
	return &WriteProber{prober: prober, sink: sink, workers: workers}
}

// ProbeTargets probes every target. Writable targets are appended to
// opts.WritableOutput as soon as they are classified, so an interrupted run
// keeps its progress. Residual probe documents are appended to
// opts.ResidualOutput. Per-target failures are reported, not returned.
func (w *WriteProber) ProbeTargets(
	ctx context.Context, targets []domain.Target, opts driving.ProbeOptions,
) (*driving.ProbeReport, error) {
	if opts.WritableOutput == "" || opts.ResidualOutput == "" {
		return nil, fmt.Errorf("%w: writable and residual outputs are required", domain.ErrConfiguration)
	}

	logger.Section("Write probe")
	report := &driving.ProbeReport{Total: len(targets)}
	var mu sync.Mutex

	failures, err := forEachTarget(ctx, w.workers, targets, func(ctx context.Context, target domain.Target) error {
		result, probeErr := w.prober.Probe(ctx, target)

		var sinkErr error
		switch result.Outcome {
		case domain.Writable:
			logger.Info("%s is writable", target)
			sinkErr = w.sink.Append(opts.WritableOutput, target.String())
			mu.Lock()
			report.Writable = append(report.Writable, target)
			mu.Unlock()
		case domain.WritableButUndeletable:
			sinkErr = w.sink.Append(opts.ResidualOutput, result.ResidualLine())
			mu.Lock()
			report.Undeletable = append(report.Undeletable, result)
			mu.Unlock()
		}

		return errors.Join(probeErr, sinkErr)
	})
	report.Failures = failures

	logger.Info("Found %d writable spaces out of %d sites", len(report.Writable), report.Total)
	return report, err
}

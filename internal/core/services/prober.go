package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// Prober determines whether a target accepts writes by creating a probe
// document, deleting it and confirming it is gone.
type Prober struct {
	factory  driven.SessionFactory
	throttle *Throttle
	metrics  driven.MetricsRecorder
}

// NewProber creates a capability prober.
func NewProber(factory driven.SessionFactory, throttle *Throttle, metrics driven.MetricsRecorder) *Prober {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &Prober{factory: factory, throttle: throttle, metrics: metrics}
}

// Probe opens a session for target and classifies it.
// The error is non-nil only when no session could be opened or ctx ended.
func (p *Prober) Probe(ctx context.Context, target domain.Target) (domain.ProbeResult, error) {
	session, err := p.factory.Open(ctx, target)
	if err != nil {
		return domain.ProbeResult{Target: target, Outcome: domain.NotWritable, Reason: err.Error()},
			fmt.Errorf("open session: %w", err)
	}
	return p.ProbeSession(ctx, session)
}

// ProbeSession classifies the target behind an open session.
//
// Creation failure of any kind means NotWritable. After a successful create
// the document is deleted and its existence re-checked. The target is
// Writable only when the delete succeeded and the check confirms absence
// (NotFound counts as absent); every other combination leaves a residual
// document and yields WritableButUndeletable.
func (p *Prober) ProbeSession(ctx context.Context, session driven.Session) (domain.ProbeResult, error) {
	result := domain.ProbeResult{Target: session.Target(), Outcome: domain.NotWritable}

	if err := p.throttle.Wait(ctx); err != nil {
		return result, err
	}
	file, err := session.CreateProbeFile(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		logger.Debug("probe create on %s refused: %v", result.Target, err)
		result.Reason = err.Error()
		p.metrics.ProbeOutcome(result.Outcome)
		return result, nil
	}
	result.ProbeFile = file

	if err := p.throttle.Wait(ctx); err != nil {
		return p.undeletable(result, "cancelled before delete"), err
	}
	deleteErr := session.DeleteFile(ctx, file.ServerRelativeURL)
	if errors.Is(deleteErr, domain.ErrNotFound) {
		deleteErr = nil
	}

	if err := p.throttle.Wait(ctx); err != nil {
		return p.undeletable(result, "cancelled before existence check"), err
	}
	exists, checkErr := session.FileExists(ctx, file.ServerRelativeURL)
	if errors.Is(checkErr, domain.ErrNotFound) {
		exists, checkErr = false, nil
	}

	switch {
	case deleteErr != nil:
		return p.undeletable(result, fmt.Sprintf("delete failed: %v", deleteErr)), nil
	case checkErr != nil:
		return p.undeletable(result, fmt.Sprintf("absence not confirmed: %v", checkErr)), nil
	case exists:
		return p.undeletable(result, "probe document still present after delete"), nil
	}

	result.Outcome = domain.Writable
	p.metrics.ProbeOutcome(result.Outcome)
	return result, nil
}

func (p *Prober) undeletable(result domain.ProbeResult, reason string) domain.ProbeResult {
	logger.Warn("probe document %s left on %s: %s", result.ProbeFile.Name, result.Target, reason)
	result.Outcome = domain.WritableButUndeletable
	result.Reason = reason
	p.metrics.ProbeOutcome(result.Outcome)
	return result
}

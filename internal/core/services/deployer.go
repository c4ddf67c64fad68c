package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// Ensure DecoyDeployer implements the interface.
var _ driving.DecoyDeployer = (*DecoyDeployer)(nil)

// DecoyDeployer plants one decoy per target and forges its provenance so it
// appears to have been written by the site owner long ago.
type DecoyDeployer struct {
	factory     driven.SessionFactory
	templates   driven.TemplateStore
	index       *domain.WordlistIndex
	synthesizer *Synthesizer
	sink        driven.ResultSink
	throttle    *Throttle
	metrics     driven.MetricsRecorder
	workers     int
}

// NewDecoyDeployer creates a deployment orchestrator.
func NewDecoyDeployer(
	factory driven.SessionFactory,
	templates driven.TemplateStore,
	index *domain.WordlistIndex,
	synthesizer *Synthesizer,
	sink driven.ResultSink,
	throttle *Throttle,
	metrics driven.MetricsRecorder,
	workers int,
) *DecoyDeployer {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &DecoyDeployer{
		factory:     factory,
		templates:   templates,
		index:       index,
		synthesizer: synthesizer,
		sink:        sink,
		throttle:    throttle,
		metrics:     metrics,
		workers:     workers,
	}
}

// DeployDecoys plants a decoy into every target. Only decoys whose upload and
// full metadata update both succeeded are appended to opts.DeployedOutput.
func (d *DecoyDeployer) DeployDecoys(
	ctx context.Context, targets []domain.Target, opts driving.DeployOptions,
) (*driving.DeployReport, error) {
	if opts.DeployedOutput == "" {
		return nil, fmt.Errorf("%w: deployed output is required", domain.ErrConfiguration)
	}
	templates, err := d.listTemplates()
	if err != nil {
		return nil, err
	}

	logger.Section("Decoy deployment")
	report := &driving.DeployReport{Total: len(targets)}
	var mu sync.Mutex

	failures, err := forEachTarget(ctx, d.workers, targets, func(ctx context.Context, target domain.Target) error {
		record, err := d.deploy(ctx, target, templates)
		switch {
		case errors.Is(err, domain.ErrUnknownTemplate):
			logger.Warn("%s: skipped, %v", target, err)
			mu.Lock()
			report.Skipped++
			mu.Unlock()
			return nil
		case err != nil:
			d.metrics.DecoyDeployment(false)
			return err
		}

		d.metrics.DecoyDeployment(true)
		if err := d.sink.Append(opts.DeployedOutput, record.Line()); err != nil {
			return fmt.Errorf("record deployment: %w", err)
		}
		logger.Info("Deployed decoy %s to %s", record.Filename, target)
		mu.Lock()
		report.Deployed = append(report.Deployed, *record)
		mu.Unlock()
		return nil
	})
	report.Failures = failures

	logger.Info("Deployed %d decoys to %d targets", len(report.Deployed), report.Total)
	return report, err
}

func (d *DecoyDeployer) listTemplates() ([]string, error) {
	names, err := d.templates.List()
	if err != nil {
		return nil, fmt.Errorf("%w: list templates: %w", domain.ErrConfiguration, err)
	}
	var templates []string
	for _, name := range names {
		if domain.IsTemplate(name) {
			templates = append(templates, name)
		}
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("%w: no template files found", domain.ErrConfiguration)
	}
	return templates, nil
}

//nolint:gocyclo // Sequential deployment protocol
func (d *DecoyDeployer) deploy(ctx context.Context, target domain.Target, templates []string) (*domain.DecoyRecord, error) {
	session, err := d.factory.Open(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	if err := d.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	library, err := session.DefaultLibrary(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve default library: %w", err)
	}
	logger.Debug("%s: default library %s", target, library.Title)

	if err := d.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	owner, err := session.SiteOwner(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve site owner: %w", err)
	}

	template := templates[d.synthesizer.Pick(len(templates))]
	decoy, err := d.synthesizer.Synthesize(template, d.index)
	if err != nil {
		return nil, err
	}

	content, err := d.templates.Read(template)
	if err != nil {
		return nil, fmt.Errorf("%w: read template %s: %w", domain.ErrConfiguration, template, err)
	}

	if err := d.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	if _, err := session.UploadFile(ctx, library, decoy.Filename, content); err != nil {
		return nil, fmt.Errorf("upload %s: %w", decoy.Filename, err)
	}
	logger.Debug("%s: uploaded %s from %s", target, decoy.Filename, template)

	fields := []domain.FieldValue{
		{Name: domain.FieldEditor, Value: domain.FieldUser(owner.LoginName)},
		{Name: domain.FieldModified, Value: domain.FieldTime(decoy.ModifiedAt)},
		{Name: domain.FieldCreated, Value: domain.FieldTime(decoy.CreatedAt)},
		{Name: domain.FieldAuthor, Value: domain.FieldUser(owner.LoginName)},
	}
	if err := d.throttle.Wait(ctx); err != nil {
		return nil, err
	}
	results, err := session.UpdateItemMetadata(ctx, library, decoy.Filename, fields)
	if err != nil {
		return nil, fmt.Errorf("update metadata of %s: %w", decoy.Filename, err)
	}
	if failed := rejectedFields(results); failed != "" {
		return nil, fmt.Errorf("%w: %s left on %s, rejected %s", domain.ErrPartialUpdate, decoy.Filename, target, failed)
	}

	return &domain.DecoyRecord{
		Target:     target,
		Filename:   decoy.Filename,
		CreatedAt:  decoy.CreatedAt,
		ModifiedAt: decoy.ModifiedAt,
		Author:     *owner,
	}, nil
}

// rejectedFields describes every field the platform refused, empty if none.
func rejectedFields(results []domain.FieldUpdateResult) string {
	var parts []string
	for _, r := range results {
		if !r.HasException {
			continue
		}
		if r.ErrorMessage != "" {
			parts = append(parts, r.Name+" ("+r.ErrorMessage+")")
		} else {
			parts = append(parts, r.Name)
		}
	}
	return strings.Join(parts, ", ")
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// Ensure ContentScanner implements the interface.
var _ driving.ContentScanner = (*ContentScanner)(nil)

// sectionRule underlines a query title in the search output.
var sectionRule = strings.Repeat("-", 80)

// ContentScanner runs content queries from the root target.
type ContentScanner struct {
	factory  driven.SessionFactory
	root     domain.Target
	searcher *Searcher
	sink     driven.ResultSink
}

// NewContentScanner creates a content scanner searching from root.
func NewContentScanner(
	factory driven.SessionFactory, root domain.Target, searcher *Searcher, sink driven.ResultSink,
) *ContentScanner {
	return &ContentScanner{factory: factory, root: root, searcher: searcher, sink: sink}
}

// ScanCatalog runs each named query in order and appends one section per
// query: a blank line, "Query: <title>", a rule, the paths and a blank line.
// A query that fails part way keeps its partial section and the scan moves on.
func (s *ContentScanner) ScanCatalog(
	ctx context.Context, catalog []domain.NamedQuery, output string,
) (*driving.ScanReport, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: query catalog is empty", domain.ErrConfiguration)
	}
	logger.Section("Content scan")

	session, err := s.factory.Open(ctx, s.root)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	report := &driving.ScanReport{Failures: make(map[string]error)}
	for _, nq := range catalog {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		logger.Info("Running query: %s", nq.Title)

		result, searchErr := s.searcher.Search(ctx, session, nq.Query)
		report.Queries++
		report.Files += result.Len()
		if searchErr != nil {
			logger.Error("query %q stopped early: %v", nq.Title, searchErr)
			report.Failures[nq.Title] = searchErr
		}

		lines := make([]string, 0, result.Len()+4)
		lines = append(lines, "", "Query: "+nq.Title, sectionRule)
		lines = append(lines, result.Paths()...)
		lines = append(lines, "")
		if err := s.sink.Append(output, lines...); err != nil {
			return report, fmt.Errorf("write results: %w", err)
		}
	}
	return report, nil
}

// ScanQuery runs one query and appends its paths as a flat list.
func (s *ContentScanner) ScanQuery(ctx context.Context, query domain.Query, output string) (*driving.ScanReport, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	logger.Section("Content scan")

	session, err := s.factory.Open(ctx, s.root)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	result, searchErr := s.searcher.Search(ctx, session, query)
	report := &driving.ScanReport{Queries: 1, Files: result.Len(), Failures: make(map[string]error)}
	if searchErr != nil {
		logger.Error("query stopped early: %v", searchErr)
		report.Failures[""] = searchErr
	}

	if result.Len() > 0 {
		if err := s.sink.Append(output, result.Paths()...); err != nil {
			return report, fmt.Errorf("write results: %w", err)
		}
	}
	return report, nil
}

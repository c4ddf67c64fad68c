package services

import (
	"context"
	"fmt"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// Ensure SiteEnumerator implements the interface.
var _ driving.SiteEnumerator = (*SiteEnumerator)(nil)

// SiteEnumerator lists the sites and webs visible from the root target.
type SiteEnumerator struct {
	factory  driven.SessionFactory
	root     domain.Target
	searcher *Searcher
	sink     driven.ResultSink
}

// NewSiteEnumerator creates a site enumerator searching from root.
func NewSiteEnumerator(
	factory driven.SessionFactory, root domain.Target, searcher *Searcher, sink driven.ResultSink,
) *SiteEnumerator {
	return &SiteEnumerator{factory: factory, root: root, searcher: searcher, sink: sink}
}

// EnumerateSites runs the site query and appends every unique address to
// output. A search failure part way through still writes the addresses found
// so far and is reported in EnumerateReport.Err.
func (e *SiteEnumerator) EnumerateSites(ctx context.Context, output string) (*driving.EnumerateReport, error) {
	logger.Section("Site enumeration")

	session, err := e.factory.Open(ctx, e.root)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	result, searchErr := e.searcher.Search(ctx, session, domain.NewQuery(domain.SitesQueryText, nil, ""))
	report := &driving.EnumerateReport{Sites: result.Paths(), Err: searchErr}
	if searchErr != nil {
		logger.Error("site enumeration stopped early: %v", searchErr)
	}

	if len(report.Sites) > 0 {
		if err := e.sink.Append(output, report.Sites...); err != nil {
			return report, fmt.Errorf("write sites: %w", err)
		}
	}

	logger.Info("Total sites found: %d", len(report.Sites))
	return report, nil
}

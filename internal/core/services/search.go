package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driven"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// Searcher is the paginated search client. It walks a query page by page,
// strictly in increasing row order, and collapses duplicate paths.
type Searcher struct {
	throttle *Throttle
	pageSize int
	metrics  driven.MetricsRecorder
}

// NewSearcher creates a searcher. The page size is clamped to the platform
// bounds; throttle and metrics may be nil.
func NewSearcher(throttle *Throttle, pageSize int, metrics driven.MetricsRecorder) *Searcher {
	if metrics == nil {
		metrics = driven.NopMetrics{}
	}
	return &Searcher{
		throttle: throttle,
		pageSize: domain.ClampPageSize(pageSize),
		metrics:  metrics,
	}
}

// PageSize returns the effective page size.
func (s *Searcher) PageSize() int {
	return s.pageSize
}

// Enumerate lazily yields the unique paths matching query.
//
// Pages are requested for [startRow, startRow+pageSize) starting at row 0.
// A page with zero rows ends the sequence; there is no other stop condition.
// If a page fails, the paths already yielded stand and the failure is sent on
// the error channel wrapped as domain.ErrTransport. Both channels are closed
// when enumeration ends. The sequence is not restartable: call Enumerate again
// to re-issue from row 0.
func (s *Searcher) Enumerate(
	ctx context.Context, session driven.Session, query domain.Query,
) (<-chan string, <-chan error) {
	paths := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		text := query.String()
		seen := domain.NewSearchResult()
		logger.Debug("search %s: %s", session.Target(), text)

		for startRow := 0; ; startRow += s.pageSize {
			if err := ctx.Err(); err != nil {
				errs <- err
				return
			}
			if err := s.throttle.Wait(ctx); err != nil {
				errs <- err
				return
			}

			page, err := session.Search(ctx, text, s.pageSize, startRow)
			if err != nil {
				errs <- pageError(startRow, err)
				return
			}
			s.metrics.SearchPage(page.RowCount())

			if page.RowCount() == 0 {
				logger.Debug("search complete at row %d: %d unique paths", startRow, seen.Len())
				return
			}

			for _, p := range page.Paths {
				if !seen.Add(p) {
					continue
				}
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case paths <- p:
				}
			}
		}
	}()

	return paths, errs
}

// Search collects Enumerate into a result set. On failure the partial result
// is returned together with the error.
func (s *Searcher) Search(ctx context.Context, session driven.Session, query domain.Query) (domain.SearchResult, error) {
	paths, errs := s.Enumerate(ctx, session, query)
	result := domain.NewSearchResult()
	for p := range paths {
		result.Add(p)
	}
	return result, <-errs
}

// pageError wraps a failed page as a recoverable transport failure.
// Cancellation is passed through untouched.
func pageError(startRow int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, domain.ErrTransport) {
		return fmt.Errorf("search page at row %d: %w", startRow, err)
	}
	return fmt.Errorf("%w: search page at row %d: %w", domain.ErrTransport, startRow, err)
}

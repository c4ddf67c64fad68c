package services

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pwnpy/sharesentry/internal/core/domain"
	"github.com/pwnpy/sharesentry/internal/core/ports/driving"
	"github.com/pwnpy/sharesentry/internal/logger"
)

// forEachTarget runs fn for every target with at most workers in flight.
// A failing target never stops the others. Cancellation is checked before
// each target is started; the returned error is ctx.Err() when the run was
// cut short. Failures are returned in target order.
func forEachTarget(
	ctx context.Context,
	workers int,
	targets []domain.Target,
	fn func(ctx context.Context, target domain.Target) error,
) ([]driving.TargetFailure, error) {
	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		errs = make([]error, len(targets))
		g    errgroup.Group
	)
	g.SetLimit(workers)

	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := fn(ctx, target); err != nil {
				logger.Error("%s: %v", target, err)
				mu.Lock()
				errs[i] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	var failures []driving.TargetFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, driving.TargetFailure{Target: targets[i], Err: err})
		}
	}
	return failures, ctx.Err()
}

// internal/refresher/refresher.go
package refresher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"portfolio-stats/internal/model"
)

const (
	// Number of upstream fetches to run in parallel
	concurrency = 5
)

// Warmer is the subset of the portfolio service the refresher drives.
type Warmer interface {
	Account(ctx context.Context) (*model.Account, error)
	Featured(ctx context.Context, includeForks bool) ([]model.Repository, error)
	Languages(ctx context.Context, name string) (map[string]int, error)
}

// Refresher keeps the response cache warm so page visitors rarely wait on GitHub.
type Refresher struct {
	svc      Warmer
	logger   *slog.Logger
	interval time.Duration
}

// NewRefresher creates a new Refresher instance.
func NewRefresher(svc Warmer, logger *slog.Logger, interval time.Duration) *Refresher {
	return &Refresher{
		svc:      svc,
		logger:   logger,
		interval: interval,
	}
}

// Start refreshes immediately and then on every interval until ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("Starting refresher", "interval", r.interval.String(), "concurrency", concurrency)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunCycle(ctx) // Initial warm-up

	for {
		select {
		case <-ticker.C:
			r.RunCycle(ctx)
		case <-ctx.Done():
			r.logger.Info("Refresher shutting down", "reason", ctx.Err())
			return
		}
	}
}

// RunCycle fetches the account, the featured repositories and their
// languages. Failures are logged and never stop the cycle.
func (r *Refresher) RunCycle(ctx context.Context) {
	r.logger.Info("Starting new refresh cycle")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	g.Go(func() error {
		if _, err := r.svc.Account(gctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("Failed to refresh account", "error", err)
		}
		return nil
	})

	featured, err := r.svc.Featured(gctx, false)
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("Failed to refresh repositories", "error", err)
	}
	for _, repo := range featured {
		name := repo.Name
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			if _, err := r.svc.Languages(gctx, name); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error("Failed to refresh repository languages", "repo", name, "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		r.logger.Error("Refresh cycle finished with an error", "error", err)
	} else {
		r.logger.Info("Refresh cycle finished", "featured", len(featured))
	}
}

// Package refresh runs the periodic background jobs: refreshing the inflation
// snapshot and sweeping expired deals.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/geo"
	"github.com/shadatr/costsense-backend/internal/inflation"
)

// DefaultInterval is how often the refresher wakes up.
const DefaultInterval = 24 * time.Hour

// Refresher schedules the background jobs. Every write the jobs perform is an
// idempotent upsert keyed by natural identity, so overlapping runs are
// harmless; a failed run is logged and the next tick tries again.
type Refresher struct {
	inflation *inflation.Service
	deals     *geo.Matcher
	interval  time.Duration
}

// New creates a refresher with the default interval.
func New(inflationSvc *inflation.Service, deals *geo.Matcher) *Refresher {
	return NewWithInterval(inflationSvc, deals, DefaultInterval)
}

// NewWithInterval creates a refresher that wakes up at the given interval.
func NewWithInterval(inflationSvc *inflation.Service, deals *geo.Matcher, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{inflation: inflationSvc, deals: deals, interval: interval}
}

// Run executes the jobs once immediately, then on every tick until the
// context is canceled. Job errors never escape this loop.
func (r *Refresher) Run(ctx context.Context) {
	slog.Info("background refresher started", "interval", r.interval)

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("background refresher stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes both jobs, logging and swallowing failures.
func (r *Refresher) RunOnce(ctx context.Context) {
	if err := r.refreshInflation(ctx); err != nil {
		slog.Error("inflation refresh failed", "error", err)
	}
	if err := r.sweepDeals(ctx); err != nil {
		slog.Error("deal sweep failed", "error", err)
	}
}

func (r *Refresher) refreshInflation(ctx context.Context) error {
	return common.WithRetry(ctx, func() error {
		_, err := r.inflation.RefreshSnapshot(ctx)
		if errors.Is(err, common.ErrUpstreamUnavailable) {
			// Nothing stored to refresh from; retrying won't change that.
			slog.Warn("no inflation data to refresh", "error", err)
			return nil
		}
		return err
	}, common.RetryOptions{MaxAttempts: 3})
}

func (r *Refresher) sweepDeals(ctx context.Context) error {
	return common.WithRetry(ctx, func() error {
		count, err := r.deals.SweepExpired(ctx)
		if err != nil {
			return err
		}
		slog.Debug("deal sweep complete", "deactivated", count)
		return nil
	}, common.RetryOptions{MaxAttempts: 3})
}

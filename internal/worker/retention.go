// Package worker runs background maintenance for the verification history.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/usps/internal/telemetry"
)

// Pruner deletes verification records older than a cutoff.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds retention worker configuration
type Config struct {
	// Retention is how long records are kept. Zero disables pruning.
	Retention time.Duration

	// Interval is how often old records are swept
	Interval time.Duration

	// Now overrides time.Now, for tests
	Now func() time.Time
}

// Retention periodically prunes the verification history
type Retention struct {
	config Config
	store  Pruner
	logger *slog.Logger
}

// NewRetention creates a new retention worker
func NewRetention(store Pruner, config Config, logger *slog.Logger) *Retention {
	if config.Interval == 0 {
		config.Interval = time.Hour
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Retention{
		config: config,
		store:  store,
		logger: logger,
	}
}

// Start sweeps once immediately and then every Interval until the context is
// cancelled. It returns nil right away when retention is disabled.
func (w *Retention) Start(ctx context.Context) error {
	if w.config.Retention <= 0 {
		w.logger.Info("verification retention disabled")
		return nil
	}

	w.logger.Info("retention worker starting",
		"retention", w.config.Retention,
		"interval", w.config.Interval,
	)

	w.Sweep(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("retention worker stopping")
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep deletes records older than the retention period. Failures are logged
// and retried on the next tick.
func (w *Retention) Sweep(ctx context.Context) {
	cutoff := w.config.Now().Add(-w.config.Retention)

	n, err := w.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("failed to prune verifications", "cutoff", cutoff, "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"cutoff": cutoff.String()})
		return
	}

	if n > 0 {
		w.logger.Info("pruned verifications", "deleted", n, "cutoff", cutoff)
	}
}

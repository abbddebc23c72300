package reaper

import (
	"context"
	"time"

	"github.com/Skotchmaster/comic_reader/internal/logging"
)

// Sweeper deletes revocation rows whose token has already expired.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Reaper struct {
	ledger   Sweeper
	interval time.Duration
	now      func() time.Time
}

func New(ledger Sweeper, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Reaper{ledger: ledger, interval: interval, now: time.Now}
}

// Start sweeps once right away, then on every tick until ctx is done.
func (r *Reaper) Start(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "reaper")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	l.Info("reaper_started", "interval", r.interval.String())
	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			l.Info("reaper_stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	n, err := r.ledger.DeleteExpired(ctx, r.now())
	if err != nil {
		if ctx.Err() == nil {
			logging.FromContext(ctx).Error("reaper_sweep_failed", "error", err)
		}
		return
	}
	if n > 0 {
		logging.FromContext(ctx).Info("reaper_sweep", "deleted", n)
	}
}

package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"coupon-lifecycle-engine/internal/infra/metrics"
	"coupon-lifecycle-engine/internal/usecase"
)

// LockReaper periodically sweeps expired redemption holds back to ASSIGNED
// via the lock use case.
type LockReaper struct {
	interval time.Duration
	lockUC   *usecase.LockUseCase
	log      *zerolog.Logger
}

func NewLockReaper(interval time.Duration, lockUC *usecase.LockUseCase, logger *zerolog.Logger) *LockReaper {
	reapLog := logger.With().Str("component", "LockReaper").Logger()
	return &LockReaper{
		interval: interval,
		lockUC:   lockUC,
		log:      &reapLog,
	}
}

func (w *LockReaper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting lock reaper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping lock reaper")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.lockUC.ReclaimExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("lock reaper error")
			}
			if n > 0 {
				metrics.AddLocksReclaimed(n)
				w.log.Info().Int("count", n).Msg("expired locks reclaimed")
			}
		}
	}
}

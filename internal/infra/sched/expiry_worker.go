package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
	red "telegram-membership-bot/internal/infra/redis"
	"telegram-membership-bot/internal/usecase"
)

const expiryLockKey = "lock:expiry_sweep"

// ExpiryWorker periodically downgrades lapsed memberships via the use case.
// With a locker set, only one replica sweeps per tick.
type ExpiryWorker struct {
	interval     time.Duration
	membershipUC usecase.MembershipUseCase
	locker       red.Locker
	clock        *domain.CivilClock
	log          *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, membershipUC usecase.MembershipUseCase, locker red.Locker, clock *domain.CivilClock, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:     interval,
		membershipUC: membershipUC,
		locker:       locker,
		clock:        clock,
		log:          &exprLog,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Errors are logged, never returned.
func (w *ExpiryWorker) RunOnce(ctx context.Context) {
	ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	log := logging.With(ctx, w.log)

	if w.locker != nil {
		token, err := w.locker.TryLock(ctx, expiryLockKey, w.interval)
		if errors.Is(err, domain.ErrLockNotAcquired) {
			log.Debug().Msg("expiry sweep held by another worker, skipping")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("expiry sweep lock failed")
			return
		}
		// the ttl covers a crashed holder
		defer func() {
			if err := w.locker.Unlock(context.WithoutCancel(ctx), expiryLockKey, token); err != nil {
				log.Warn().Err(err).Msg("expiry sweep unlock failed")
			}
		}()
	}

	start := time.Now()
	report, err := w.membershipUC.SweepExpired(ctx, w.clock.Now())
	metrics.ObserveSweepDuration(time.Since(start).Seconds())
	if err != nil {
		metrics.IncSweepFailures(1)
		log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if report.Failed > 0 {
		metrics.IncSweepFailures(report.Failed)
	}
	if report.Downgraded > 0 {
		metrics.IncMembershipsExpired(report.Downgraded)
	}
	log.Info().
		Int("candidates", report.Candidates).
		Int("downgraded", report.Downgraded).
		Int("failed", report.Failed).
		Msg("expiry sweep finished")
}

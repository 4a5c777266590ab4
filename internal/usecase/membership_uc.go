package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
)

var _ MembershipUseCase = (*membershipUC)(nil)

// SweepReport summarizes one expiry sweep.
type SweepReport struct {
	Candidates int
	Downgraded int
	Failed     int
}

type MembershipUseCase interface {
	// SweepExpired downgrades every user whose expiry is at or before now.
	// Per-user failures are logged and counted, never abort the sweep.
	SweepExpired(ctx context.Context, now time.Time) (SweepReport, error)
	// Downgrade resets one user if its expiry is still lapsed at now.
	Downgrade(ctx context.Context, userID int64, now time.Time) (bool, error)
}

type membershipUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewMembershipUseCase(users repository.UserRepository, logger *zerolog.Logger) *membershipUC {
	return &membershipUC{users: users, log: logger}
}

func (uc *membershipUC) SweepExpired(ctx context.Context, now time.Time) (SweepReport, error) {
	defer logging.TraceDuration(uc.log, "MembershipUC.SweepExpired")()

	var rep SweepReport
	ids, err := uc.users.ListExpired(ctx, repository.NoTX, now)
	if err != nil {
		return rep, err
	}
	rep.Candidates = len(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		ok, err := uc.Downgrade(ctx, id, now)
		if err != nil {
			rep.Failed++
			uc.log.Error().Err(err).Int64("tg_id", id).Msg("failed to downgrade expired membership")
			continue
		}
		if ok {
			rep.Downgraded++
		}
	}
	return rep, nil
}

func (uc *membershipUC) Downgrade(ctx context.Context, userID int64, now time.Time) (bool, error) {
	return uc.users.DowngradeIfExpired(ctx, repository.NoTX, userID, now)
}

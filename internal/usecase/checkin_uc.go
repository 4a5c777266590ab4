package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
)

var _ CheckInUseCase = (*checkInUC)(nil)

type CheckInUseCase interface {
	// CheckIn credits one point if the last check-in is at least 24h old.
	CheckIn(ctx context.Context, userID int64, now time.Time) (*model.CheckInResult, error)
}

type checkInUC struct {
	users    repository.UserRepository
	checkins repository.CheckInRepository
	tm       repository.TransactionManager
	clock    *domain.CivilClock
	log      *zerolog.Logger
}

func NewCheckInUseCase(users repository.UserRepository, checkins repository.CheckInRepository, tm repository.TransactionManager, clock *domain.CivilClock, logger *zerolog.Logger) *checkInUC {
	return &checkInUC{users: users, checkins: checkins, tm: tm, clock: clock, log: logger}
}

func (uc *checkInUC) CheckIn(ctx context.Context, userID int64, now time.Time) (*model.CheckInResult, error) {
	defer logging.TraceDuration(uc.log, "CheckInUC.CheckIn")()
	now = uc.clock.In(now)

	var res *model.CheckInResult
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.users.FindByID(ctx, tx, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotRegistered
			}
			return err
		}

		firstTime := false
		prev, err := uc.checkins.Find(ctx, tx, userID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			inserted, err := uc.checkins.InsertIfAbsent(ctx, tx, &model.CheckIn{UserID: userID, LastCheckInTime: now})
			if err != nil {
				return err
			}
			if !inserted {
				// Another request created the row a moment ago.
				return domain.ErrAlreadyCheckedIn
			}
			firstTime = true
		case err != nil:
			return err
		default:
			advanced, err := uc.checkins.Advance(ctx, tx, userID, now, model.CheckInCooldown)
			if err != nil {
				return err
			}
			if !advanced {
				return fmt.Errorf("%w: next check-in at %s", domain.ErrAlreadyCheckedIn, uc.clock.Format(prev.NextEligibleAt()))
			}
		}

		score, err := uc.users.AddScore(ctx, tx, userID, model.CheckInReward)
		if err != nil {
			return err
		}
		res = &model.CheckInResult{
			Score:          score,
			CheckedInAt:    now,
			NextEligibleAt: now.Add(model.CheckInCooldown),
			FirstTime:      firstTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

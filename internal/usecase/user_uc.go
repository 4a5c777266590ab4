package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// AttributionOutcome tells the caller what happened to the invite code passed at registration.
type AttributionOutcome string

const (
	AttributionNone       AttributionOutcome = "none"       // no code supplied
	AttributionCredited   AttributionOutcome = "credited"   // inviter credited
	AttributionUnresolved AttributionOutcome = "unresolved" // code matched no inviter
	AttributionFailed     AttributionOutcome = "failed"     // storage error; registration kept
)

type RegistrationResult struct {
	User        *model.User
	Attribution AttributionOutcome
	InviterID   int64
}

// UserUseCase covers registration, invite attribution and the profile read model.
type UserUseCase interface {
	Register(ctx context.Context, userID int64, username, inviteCode string) (*RegistrationResult, error)
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	GetProfile(ctx context.Context, userID int64) (*model.Profile, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users   repository.UserRepository
	invites repository.InviteRepository
	tm      repository.TransactionManager
	clock   *domain.CivilClock
	log     *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, invites repository.InviteRepository, tm repository.TransactionManager, clock *domain.CivilClock, logger *zerolog.Logger) *userUC {
	return &userUC{
		users:   users,
		invites: invites,
		tm:      tm,
		clock:   clock,
		log:     logger,
	}
}

// Register inserts the user, then attributes the invite in a separate transaction.
// An attribution failure is logged and reported in the result, never returned as an error.
func (u *userUC) Register(ctx context.Context, userID int64, username, inviteCode string) (*RegistrationResult, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	nu, err := model.NewUser(userID, username, u.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := u.users.Create(ctx, repository.NoTX, nu); err != nil {
		return nil, err
	}
	res := &RegistrationResult{User: nu, Attribution: AttributionNone}

	inviteCode = strings.TrimSpace(inviteCode)
	if inviteCode == "" {
		return res, nil
	}

	inviterID, err := u.attribute(ctx, nu.UserID, inviteCode)
	switch {
	case err == nil:
		res.Attribution = AttributionCredited
		res.InviterID = inviterID
	case errors.Is(err, domain.ErrNotFound):
		u.log.Info().Int64("tg_id", userID).Str("invite_code", inviteCode).Msg("invite code did not resolve to an inviter")
		res.Attribution = AttributionUnresolved
	default:
		u.log.Error().Err(err).Int64("tg_id", userID).Str("invite_code", inviteCode).Msg("invite attribution failed")
		res.Attribution = AttributionFailed
	}
	return res, nil
}

// attribute writes the invite log, credits the inviter and bumps the counter as one unit.
func (u *userUC) attribute(ctx context.Context, invitedID int64, code string) (int64, error) {
	var inviterID int64
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		inv, err := u.invites.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if inv.UserID == invitedID {
			return domain.ErrNotFound
		}
		l := &model.InviteLog{InviterID: inv.UserID, InvitedID: invitedID, CreatedAt: u.clock.Now()}
		if err := u.invites.AppendLog(ctx, tx, l); err != nil {
			return err
		}
		if _, err := u.users.AddScore(ctx, tx, inv.UserID, 1); err != nil {
			return err
		}
		if err := u.invites.IncrementCount(ctx, tx, inv.UserID); err != nil {
			return err
		}
		inviterID = inv.UserID
		return nil
	})
	return inviterID, err
}

func (u *userUC) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	defer logging.TraceDuration(u.log, "UserUC.IsRegistered")()
	_, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (u *userUC) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	defer logging.TraceDuration(u.log, "UserUC.GetProfile")()
	p, err := u.users.FindProfile(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotRegistered
	}
	return p, err
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}

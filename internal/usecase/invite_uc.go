package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
)

var _ InviteUseCase = (*inviteUC)(nil)

// maxInviteCodeAttempts bounds retries on a (very unlikely) code collision.
const maxInviteCodeAttempts = 3

type InviteUseCase interface {
	// GetOrCreateInviteCode is idempotent: the first issued code is returned forever after.
	GetOrCreateInviteCode(ctx context.Context, userID int64) (string, error)
}

type inviteUC struct {
	users   repository.UserRepository
	invites repository.InviteRepository
	newCode func() (string, error)
	log     *zerolog.Logger
}

func NewInviteUseCase(users repository.UserRepository, invites repository.InviteRepository, logger *zerolog.Logger) *inviteUC {
	return &inviteUC{
		users:   users,
		invites: invites,
		newCode: generateInviteCode,
		log:     logger,
	}
}

func (uc *inviteUC) GetOrCreateInviteCode(ctx context.Context, userID int64) (string, error) {
	defer logging.TraceDuration(uc.log, "InviteUC.GetOrCreateInviteCode")()

	inv, err := uc.invites.FindByUser(ctx, repository.NoTX, userID)
	if err == nil {
		return inv.Code, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	if _, err := uc.users.FindByID(ctx, repository.NoTX, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotRegistered
		}
		return "", err
	}

	for attempt := 1; attempt <= maxInviteCodeAttempts; attempt++ {
		code, err := uc.newCode()
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		err = uc.invites.CreateIfAbsent(ctx, repository.NoTX, &model.Invite{UserID: userID, Code: code})
		if errors.Is(err, domain.ErrAlreadyExists) {
			uc.log.Warn().Int("attempt", attempt).Msg("invite code collision, retrying")
			continue
		}
		if err != nil {
			return "", err
		}
		// Re-read: a concurrent caller may have inserted first.
		stored, err := uc.invites.FindByUser(ctx, repository.NoTX, userID)
		if err != nil {
			return "", err
		}
		return stored.Code, nil
	}
	return "", fmt.Errorf("invite code: %w", domain.ErrAlreadyExists)
}

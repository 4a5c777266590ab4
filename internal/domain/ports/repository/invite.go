package repository

import (
	"context"

	"telegram-membership-bot/internal/domain/model"
)

// -----------------------------
// Invites
// -----------------------------

type InviteRepository interface {
	FindByUser(ctx context.Context, tx Tx, userID int64) (*model.Invite, error)
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Invite, error)
	// CreateIfAbsent inserts the invite unless the user already owns one.
	// A code collision with another user yields domain.ErrAlreadyExists.
	CreateIfAbsent(ctx context.Context, tx Tx, inv *model.Invite) error
	IncrementCount(ctx context.Context, tx Tx, userID int64) error
	// AppendLog records an attribution; domain.ErrAlreadyExists if the invited user was already attributed.
	AppendLog(ctx context.Context, tx Tx, l *model.InviteLog) error
}

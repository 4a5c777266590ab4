package repository

import (
	"context"
	"time"

	"telegram-membership-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	// Create inserts a new user; domain.ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, userID int64) (*model.User, error)
	// FindProfile joins the user with its invite counter.
	FindProfile(ctx context.Context, tx Tx, userID int64) (*model.Profile, error)
	// AddScore increments the balance in place and returns the new balance.
	AddScore(ctx context.Context, tx Tx, userID int64, delta int64) (int64, error)
	SetMembership(ctx context.Context, tx Tx, userID int64, tier model.Tier, expireTime *time.Time) error
	// ListExpired returns ids of users whose expiry is set and at or before now.
	ListExpired(ctx context.Context, tx Tx, now time.Time) ([]int64, error)
	// DowngradeIfExpired resets tier and expiry only while the expiry is still lapsed.
	DowngradeIfExpired(ctx context.Context, tx Tx, userID int64, now time.Time) (bool, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}

package repository

import (
	"context"
	"time"

	"telegram-membership-bot/internal/domain/model"
)

type CheckInRepository interface {
	Find(ctx context.Context, tx Tx, userID int64) (*model.CheckIn, error)
	// InsertIfAbsent records a first check-in. Returns false if a row already existed,
	// which includes a concurrent first check-in that won the race.
	InsertIfAbsent(ctx context.Context, tx Tx, c *model.CheckIn) (bool, error)
	// Advance moves last_checkin_time to now only if the previous one is at least
	// cooldown old. Returns false when the cooldown has not elapsed.
	Advance(ctx context.Context, tx Tx, userID int64, now time.Time, cooldown time.Duration) (bool, error)
}

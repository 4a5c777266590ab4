package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
)

var _ repository.CheckInRepository = (*checkInRepo)(nil)

type checkInRepo struct {
	pool *pgxpool.Pool
}

func NewCheckInRepo(pool *pgxpool.Pool) repository.CheckInRepository {
	return &checkInRepo{pool: pool}
}

func (r *checkInRepo) Find(ctx context.Context, tx repository.Tx, userID int64) (*model.CheckIn, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT user_id, last_checkin_time FROM user_checkins WHERE user_id = $1;`, userID)
	if err != nil {
		return nil, err
	}
	var c model.CheckIn
	if err := row.Scan(&c.UserID, &c.LastCheckInTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("find checkin", err)
	}
	return &c, nil
}

func (r *checkInRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, c *model.CheckIn) (bool, error) {
	const q = `
INSERT INTO user_checkins (user_id, last_checkin_time)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING;
`
	tag, err := execSQL(ctx, r.pool, tx, q, c.UserID, c.LastCheckInTime)
	if err != nil {
		return false, storageErr("insert checkin", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Advance is the conditional update that makes two concurrent check-ins credit at most once.
func (r *checkInRepo) Advance(ctx context.Context, tx repository.Tx, userID int64, now time.Time, cooldown time.Duration) (bool, error) {
	const q = `
UPDATE user_checkins
   SET last_checkin_time = $2
 WHERE user_id = $1 AND last_checkin_time <= $3;
`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, now, now.Add(-cooldown))
	if err != nil {
		return false, storageErr("advance checkin", err)
	}
	return tag.RowsAffected() == 1, nil
}

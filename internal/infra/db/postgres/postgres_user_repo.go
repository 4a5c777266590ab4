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

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) Create(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (user_id, username, score, register_date, user_group, expire_time)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q, u.UserID, u.Username, u.Score, u.RegisteredAt, int16(u.Tier), u.ExpireTime)
	if err != nil {
		if isUniqueViolation(err, "users_pkey") {
			return domain.ErrAlreadyExists
		}
		return storageErr("create user", err)
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, userID int64) (*model.User, error) {
	const q = `
SELECT user_id, username, score, register_date, user_group, expire_time
  FROM users WHERE user_id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.UserID, &u.Username, &u.Score, &u.RegisteredAt, &u.Tier, &u.ExpireTime); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("find user", err)
	}
	return &u, nil
}

func (r *userRepo) FindProfile(ctx context.Context, tx repository.Tx, userID int64) (*model.Profile, error) {
	const q = `
SELECT u.user_id, u.username, u.score, u.register_date, u.user_group, u.expire_time,
       COALESCE(i.invite_count, 0)
  FROM users u
  LEFT JOIN invites i ON i.user_id = u.user_id
 WHERE u.user_id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var p model.Profile
	if err := row.Scan(&p.UserID, &p.Username, &p.Score, &p.RegisteredAt, &p.Tier, &p.ExpireTime, &p.InviteCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("find profile", err)
	}
	return &p, nil
}

// AddScore applies the delta in the database so concurrent credits never lose updates.
func (r *userRepo) AddScore(ctx context.Context, tx repository.Tx, userID int64, delta int64) (int64, error) {
	const q = `UPDATE users SET score = score + $2 WHERE user_id = $1 RETURNING score;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, delta)
	if err != nil {
		return 0, err
	}
	var score int64
	if err := row.Scan(&score); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, storageErr("add score", err)
	}
	return score, nil
}

func (r *userRepo) SetMembership(ctx context.Context, tx repository.Tx, userID int64, tier model.Tier, expireTime *time.Time) error {
	const q = `UPDATE users SET user_group = $2, expire_time = $3 WHERE user_id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, int16(tier), expireTime)
	if err != nil {
		return storageErr("set membership", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]int64, error) {
	const q = `
SELECT user_id FROM users
 WHERE expire_time IS NOT NULL AND expire_time <= $1
 ORDER BY expire_time;
`
	rows, err := queryRows(ctx, r.pool, tx, q, now)
	if err != nil {
		return nil, storageErr("list expired", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan expired", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list expired", err)
	}
	return ids, nil
}

// DowngradeIfExpired leaves banned users banned; everyone else drops to normal.
func (r *userRepo) DowngradeIfExpired(ctx context.Context, tx repository.Tx, userID int64, now time.Time) (bool, error) {
	const q = `
UPDATE users
   SET user_group = CASE WHEN user_group = $3 THEN user_group ELSE $4 END,
       expire_time = NULL
 WHERE user_id = $1 AND expire_time IS NOT NULL AND expire_time <= $2;
`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, now, int16(model.TierBanned), int16(model.TierNormal))
	if err != nil {
		return false, storageErr("downgrade user", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *userRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
)

var _ repository.InviteRepository = (*inviteRepo)(nil)

type inviteRepo struct {
	pool *pgxpool.Pool
}

func NewInviteRepo(pool *pgxpool.Pool) repository.InviteRepository {
	return &inviteRepo{pool: pool}
}

func (r *inviteRepo) FindByUser(ctx context.Context, tx repository.Tx, userID int64) (*model.Invite, error) {
	return r.findOne(ctx, tx, `SELECT user_id, code, invite_count FROM invites WHERE user_id = $1;`, userID)
}

func (r *inviteRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Invite, error) {
	return r.findOne(ctx, tx, `SELECT user_id, code, invite_count FROM invites WHERE code = $1;`, code)
}

func (r *inviteRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.Invite, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	var inv model.Invite
	if err := row.Scan(&inv.UserID, &inv.Code, &inv.InviteCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("find invite", err)
	}
	return &inv, nil
}

// CreateIfAbsent is a no-op when the user already owns an invite; the caller re-reads.
func (r *inviteRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, inv *model.Invite) error {
	const q = `
INSERT INTO invites (user_id, code, invite_count)
VALUES ($1, $2, 0)
ON CONFLICT (user_id) DO NOTHING;
`
	_, err := execSQL(ctx, r.pool, tx, q, inv.UserID, inv.Code)
	if err != nil {
		if isUniqueViolation(err, "invites_code_key") {
			return domain.ErrAlreadyExists
		}
		return storageErr("create invite", err)
	}
	return nil
}

func (r *inviteRepo) IncrementCount(ctx context.Context, tx repository.Tx, userID int64) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE invites SET invite_count = invite_count + 1 WHERE user_id = $1;`, userID)
	if err != nil {
		return storageErr("increment invite count", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *inviteRepo) AppendLog(ctx context.Context, tx repository.Tx, l *model.InviteLog) error {
	const q = `
INSERT INTO invite_logs (inviter_id, invited_id, created_at)
VALUES ($1, $2, $3)
RETURNING id;
`
	row, err := pickRow(ctx, r.pool, tx, q, l.InviterID, l.InvitedID, l.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&l.ID); err != nil {
		if isUniqueViolation(err, "invite_logs_invited_id_key") {
			return domain.ErrAlreadyExists
		}
		return storageErr("append invite log", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.ActivationCodeRepository = (*activationCodeRepo)(nil)

type activationCodeRepo struct {
	pool *pgxpool.Pool
}

func NewActivationCodeRepo(pool *pgxpool.Pool) repository.ActivationCodeRepository {
	return &activationCodeRepo{pool: pool}
}

const activationCodeColumns = `id, code, used, type, expire_days, points, used_by, used_at, created_at`

// Save inserts a new, unused activation code.
func (r *activationCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ActivationCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}

	const q = `
INSERT INTO active_codes (` + activationCodeColumns + `)
VALUES ($1, $2, FALSE, $3, $4, $5, NULL, NULL, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		code.ID, code.Code, int16(code.Type), code.ExpireDays, code.Points, code.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domain.ErrAlreadyExists
		}
		return storageErr("save activation code", err)
	}
	return nil
}

// FindByCode returns the code whether or not it has been used.
func (r *activationCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ActivationCode, error) {
	q := `SELECT ` + activationCodeColumns + ` FROM active_codes WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanActivationCode(row)
}

// Consume is the compare-and-set that guarantees a code is redeemed at most once:
// of two concurrent callers exactly one sees a returned row.
func (r *activationCodeRepo) Consume(ctx context.Context, tx repository.Tx, code string, userID int64, at time.Time) (*model.ActivationCode, error) {
	q := `
UPDATE active_codes
   SET used = TRUE, used_by = $2, used_at = $3
 WHERE code = $1 AND used = FALSE
RETURNING ` + activationCodeColumns + `;`
	row, err := pickRow(ctx, r.pool, tx, q, code, userID, at)
	if err != nil {
		return nil, err
	}
	return scanActivationCode(row)
}

func scanActivationCode(row pgx.Row) (*model.ActivationCode, error) {
	var ac model.ActivationCode
	err := row.Scan(
		&ac.ID, &ac.Code, &ac.Used, &ac.Type, &ac.ExpireDays, &ac.Points, &ac.UsedBy, &ac.UsedAt, &ac.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr("scan activation code", err)
	}
	return &ac, nil
}

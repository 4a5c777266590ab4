package repository

import (
	"context"
	"time"

	"telegram-membership-bot/internal/domain/model"
)

// ActivationCodeRepository is the port for managing activation codes.
type ActivationCodeRepository interface {
	// Save inserts a provisioned code; domain.ErrAlreadyExists on a duplicate code.
	Save(ctx context.Context, tx Tx, code *model.ActivationCode) error
	// FindByCode returns the code regardless of its used flag.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ActivationCode, error)
	// Consume atomically flips used=false to used=true and returns the consumed row.
	// domain.ErrNotFound when the code does not exist or was already used.
	Consume(ctx context.Context, tx Tx, code string, userID int64, at time.Time) (*model.ActivationCode, error)
}

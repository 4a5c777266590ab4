//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v4"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
)

func TestTxManager_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	tm := NewTxManager(testPool)
	users := NewUserRepo(testPool)
	codes := NewActivationCodeRepo(testPool)

	t.Run("should roll back a consumed code when the unit fails", func(t *testing.T) {
		cleanup(t)
		u := mustCreateUser(t, 77)
		pts := int64(3)
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "ROLLBACK", Type: model.CodeTypePoints, Points: &pts})

		boom := errors.New("boom")
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := codes.Consume(ctx, tx, "ROLLBACK", u.UserID, u.RegisteredAt); err != nil {
				return err
			}
			if _, err := users.AddScore(ctx, tx, u.UserID, pts); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		c, _ := codes.FindByCode(ctx, nil, "ROLLBACK")
		if c.Used {
			t.Error("expected code to remain unused after rollback")
		}
		got, _ := users.FindByID(ctx, nil, u.UserID)
		if got.Score != 0 {
			t.Errorf("expected score 0 after rollback, got %d", got.Score)
		}
	})

	t.Run("should reject unknown executor types", func(t *testing.T) {
		if _, err := users.FindByID(ctx, "not-a-tx", 1); !errors.Is(err, domain.ErrInvalidExecContext) {
			t.Errorf("expected ErrInvalidExecContext, got %v", err)
		}
	})
}

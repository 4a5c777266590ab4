//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/usecase"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestActivationUseCase_Redeem(t *testing.T) {
	ctx := context.Background()
	redeemAt := time.Date(2024, 5, 1, 15, 30, 0, 0, testLoc)

	setup := func() (*MockUserRepo, *MockActivationCodeRepo, usecase.ActivationUseCase) {
		users := NewMockUserRepo()
		codes := NewMockActivationCodeRepo()
		users.Seed(&model.User{UserID: 1, Username: "alice", Score: 2, Tier: model.TierNormal})
		_, clock := newTestClock(redeemAt)
		return users, codes, usecase.NewActivationUseCase(users, codes, NewMockTxManager(), clock, newTestLogger())
	}

	t.Run("should grant membership until local midnight plus N days", func(t *testing.T) {
		users, codes, uc := setup()
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "VIP-30", Type: model.CodeTypeMembership, ExpireDays: intPtr(30)})

		res, err := uc.Redeem(ctx, "VIP-30", 1)
		if err != nil {
			t.Fatalf("Redeem failed: %v", err)
		}
		want := time.Date(2024, 5, 31, 0, 0, 0, 0, testLoc)
		if res.ExpireTime == nil || !res.ExpireTime.Equal(want) {
			t.Errorf("expected expiry %v, got %v", want, res.ExpireTime)
		}
		u := users.Get(1)
		if u.Tier != model.TierMember || u.ExpireTime == nil || !u.ExpireTime.Equal(want) {
			t.Errorf("unexpected user after redemption: %+v", u)
		}
		c, _ := codes.FindByCode(ctx, nil, "VIP-30")
		if !c.Used || c.UsedBy == nil || *c.UsedBy != 1 {
			t.Errorf("expected code to be marked used by user 1, got %+v", c)
		}
	})

	t.Run("should replace rather than extend an existing expiry", func(t *testing.T) {
		users, codes, uc := setup()
		far := redeemAt.Add(300 * 24 * time.Hour)
		_ = users.SetMembership(ctx, nil, 1, model.TierMember, &far)
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "VIP-7", Type: model.CodeTypeMembership, ExpireDays: intPtr(7)})

		res, err := uc.Redeem(ctx, "VIP-7", 1)
		if err != nil {
			t.Fatalf("Redeem failed: %v", err)
		}
		want := time.Date(2024, 5, 8, 0, 0, 0, 0, testLoc)
		if !res.ExpireTime.Equal(want) {
			t.Errorf("expected expiry replaced with %v, got %v", want, res.ExpireTime)
		}
	})

	t.Run("should grant membership without expiry when days are absent", func(t *testing.T) {
		users, codes, uc := setup()
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "VIP-LIFE", Type: model.CodeTypeMembership})

		if _, err := uc.Redeem(ctx, "VIP-LIFE", 1); err != nil {
			t.Fatalf("Redeem failed: %v", err)
		}
		if u := users.Get(1); u.Tier != model.TierMember || u.ExpireTime != nil {
			t.Errorf("unexpected user %+v", u)
		}
	})

	t.Run("should keep a running expiry when days are absent", func(t *testing.T) {
		users, codes, uc := setup()
		running := redeemAt.Add(5 * 24 * time.Hour)
		users.Seed(&model.User{UserID: 1, Username: "alice", Score: 2, Tier: model.TierMember, ExpireTime: &running})
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "VIP-NODAYS", Type: model.CodeTypeMembership})

		res, err := uc.Redeem(ctx, "VIP-NODAYS", 1)
		if err != nil {
			t.Fatalf("Redeem failed: %v", err)
		}
		u := users.Get(1)
		if u.Tier != model.TierMember || u.ExpireTime == nil || !u.ExpireTime.Equal(running) {
			t.Errorf("expected expiry %v to survive, got %+v", running, u.ExpireTime)
		}
		if res.ExpireTime == nil || !res.ExpireTime.Equal(running) {
			t.Errorf("expected result expiry %v, got %v", running, res.ExpireTime)
		}
	})

	t.Run("should credit points", func(t *testing.T) {
		users, codes, uc := setup()
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "PTS-50", Type: model.CodeTypePoints, Points: int64Ptr(50)})

		res, err := uc.Redeem(ctx, "PTS-50", 1)
		if err != nil {
			t.Fatalf("Redeem failed: %v", err)
		}
		if res.Score != 52 || users.Get(1).Score != 52 {
			t.Errorf("expected score 52, got %d", res.Score)
		}
		if users.Get(1).Tier != model.TierNormal {
			t.Error("points codes must not change the tier")
		}
	})

	t.Run("should fail identically for unknown and used codes", func(t *testing.T) {
		_, codes, uc := setup()
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "ONCE", Type: model.CodeTypePoints, Points: int64Ptr(1)})
		if _, err := uc.Redeem(ctx, "ONCE", 1); err != nil {
			t.Fatalf("first Redeem failed: %v", err)
		}

		if _, err := uc.Redeem(ctx, "ONCE", 1); !errors.Is(err, domain.ErrInvalidOrUsedCode) {
			t.Errorf("expected ErrInvalidOrUsedCode for used code, got %v", err)
		}
		if _, err := uc.Redeem(ctx, "NEVER-ISSUED", 1); !errors.Is(err, domain.ErrInvalidOrUsedCode) {
			t.Errorf("expected ErrInvalidOrUsedCode for unknown code, got %v", err)
		}
		if _, err := uc.Redeem(ctx, "   ", 1); !errors.Is(err, domain.ErrInvalidOrUsedCode) {
			t.Errorf("expected ErrInvalidOrUsedCode for blank code, got %v", err)
		}
	})

	t.Run("should leave the code unused for unregistered users", func(t *testing.T) {
		_, codes, uc := setup()
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "KEEP", Type: model.CodeTypePoints, Points: int64Ptr(1)})

		if _, err := uc.Redeem(ctx, "KEEP", 404); !errors.Is(err, domain.ErrNotRegistered) {
			t.Errorf("expected ErrNotRegistered, got %v", err)
		}
		if c, _ := codes.FindByCode(ctx, nil, "KEEP"); c.Used {
			t.Error("code must stay unused")
		}
	})

	t.Run("should surface grant failures", func(t *testing.T) {
		users, codes, uc := setup()
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "PTS", Type: model.CodeTypePoints, Points: int64Ptr(5)})
		users.AddScoreFunc = func(ctx context.Context, tx repository.Tx, userID int64, delta int64) (int64, error) {
			return 0, domain.ErrStorage
		}

		if _, err := uc.Redeem(ctx, "PTS", 1); !errors.Is(err, domain.ErrStorage) {
			t.Errorf("expected ErrStorage, got %v", err)
		}
	})

	t.Run("should let exactly one of two concurrent redeemers win", func(t *testing.T) {
		users, codes, uc := setup()
		users.Seed(&model.User{UserID: 2, Username: "bob", Tier: model.TierNormal})
		_ = codes.Save(ctx, nil, &model.ActivationCode{Code: "RACE", Type: model.CodeTypePoints, Points: int64Ptr(10)})

		var wins, losses int32
		var wg sync.WaitGroup
		for _, id := range []int64{1, 2} {
			wg.Add(1)
			go func(userID int64) {
				defer wg.Done()
				_, err := uc.Redeem(ctx, "RACE", userID)
				switch {
				case err == nil:
					atomic.AddInt32(&wins, 1)
				case errors.Is(err, domain.ErrInvalidOrUsedCode):
					atomic.AddInt32(&losses, 1)
				}
			}(id)
		}
		wg.Wait()

		if wins != 1 || losses != 1 {
			t.Fatalf("expected one win and one loss, got %d/%d", wins, losses)
		}
		total := users.Get(1).Score + users.Get(2).Score
		if total != 2+10 {
			t.Errorf("expected points granted once, total score %d", total)
		}
	})
}

func TestActivationUseCase_Provision(t *testing.T) {
	ctx := context.Background()
	_, clock := newTestClock(time.Now())

	t.Run("should create unique unused codes", func(t *testing.T) {
		codes := NewMockActivationCodeRepo()
		uc := usecase.NewActivationUseCase(NewMockUserRepo(), codes, NewMockTxManager(), clock, newTestLogger())

		out, err := uc.Provision(ctx, usecase.ProvisionRequest{Type: model.CodeTypeMembership, Count: 5, ExpireDays: intPtr(30)})
		if err != nil {
			t.Fatalf("Provision failed: %v", err)
		}
		if len(out) != 5 {
			t.Fatalf("expected 5 codes, got %d", len(out))
		}
		seen := map[string]bool{}
		for _, c := range out {
			if c.Used || c.ID == "" || seen[c.Code] {
				t.Errorf("unexpected code %+v", c)
			}
			seen[c.Code] = true
		}
	})

	t.Run("should validate the request", func(t *testing.T) {
		uc := usecase.NewActivationUseCase(NewMockUserRepo(), NewMockActivationCodeRepo(), NewMockTxManager(), clock, newTestLogger())

		if _, err := uc.Provision(ctx, usecase.ProvisionRequest{Type: model.CodeTypePoints, Count: 0, Points: int64Ptr(1)}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero count, got %v", err)
		}
		if _, err := uc.Provision(ctx, usecase.ProvisionRequest{Type: model.CodeTypePoints, Count: 1}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for points code without amount, got %v", err)
		}
	})
}

//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/usecase"
)

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()
	testLogger := newTestLogger()
	_, clock := newTestClock(time.Date(2024, 5, 1, 10, 0, 0, 0, testLoc))

	setup := func() (*MockUserRepo, *MockInviteRepo, usecase.UserUseCase) {
		users := NewMockUserRepo()
		invites := NewMockInviteRepo()
		users.Invites = invites
		return users, invites, usecase.NewUserUseCase(users, invites, NewMockTxManager(), clock, testLogger)
	}

	t.Run("should register a fresh user without invite code", func(t *testing.T) {
		users, _, uc := setup()

		res, err := uc.Register(ctx, 100, "alice", "")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if res.Attribution != usecase.AttributionNone {
			t.Errorf("expected no attribution, got %s", res.Attribution)
		}
		u := users.Get(100)
		if u == nil || u.Score != 0 || u.Tier != model.TierNormal || u.ExpireTime != nil {
			t.Errorf("unexpected stored user: %+v", u)
		}
	})

	t.Run("should credit the inviter exactly once", func(t *testing.T) {
		users, invites, uc := setup()
		users.Seed(&model.User{UserID: 1, Username: "inviter", Tier: model.TierNormal})
		_ = invites.CreateIfAbsent(ctx, nil, &model.Invite{UserID: 1, Code: "abc123abc123"})

		res, err := uc.Register(ctx, 2, "bob", "abc123abc123")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if res.Attribution != usecase.AttributionCredited || res.InviterID != 1 {
			t.Errorf("unexpected attribution: %+v", res)
		}

		inviter := users.Get(1)
		if inviter.Score != 1 {
			t.Errorf("expected inviter score 1, got %d", inviter.Score)
		}
		inv, _ := invites.FindByUser(ctx, nil, 1)
		logs := invites.LogCount(1)
		if inv.InviteCount != 1 || logs != 1 {
			t.Errorf("expected invite_count == logs == 1, got %d and %d", inv.InviteCount, logs)
		}
	})

	t.Run("should register silently when the code is unknown", func(t *testing.T) {
		users, invites, uc := setup()
		users.Seed(&model.User{UserID: 1, Username: "inviter", Score: 4})

		res, err := uc.Register(ctx, 2, "bob", "doesnotexist")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if res.Attribution != usecase.AttributionUnresolved {
			t.Errorf("expected unresolved, got %s", res.Attribution)
		}
		if users.Get(2) == nil {
			t.Error("expected the user to be registered")
		}
		if users.Get(1).Score != 4 {
			t.Error("no one should have been credited")
		}
		if n := invites.LogCount(1); n != 0 {
			t.Errorf("expected no logs, got %d", n)
		}
	})

	t.Run("should keep the registration when attribution fails", func(t *testing.T) {
		users, invites, uc := setup()
		users.Seed(&model.User{UserID: 1, Username: "inviter"})
		_ = invites.CreateIfAbsent(ctx, nil, &model.Invite{UserID: 1, Code: "abc123abc123"})
		invites.AppendLogFunc = func(ctx context.Context, tx repository.Tx, l *model.InviteLog) error {
			return domain.ErrStorage
		}

		res, err := uc.Register(ctx, 2, "bob", "abc123abc123")
		if err != nil {
			t.Fatalf("expected registration to succeed, got %v", err)
		}
		if res.Attribution != usecase.AttributionFailed {
			t.Errorf("expected failed attribution, got %s", res.Attribution)
		}
		if users.Get(2) == nil {
			t.Error("expected registered user to persist")
		}
	})

	t.Run("should reject duplicate registration", func(t *testing.T) {
		users, _, uc := setup()
		users.Seed(&model.User{UserID: 5, Username: "dup"})

		_, err := uc.Register(ctx, 5, "dup", "")
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("should require a username", func(t *testing.T) {
		_, _, uc := setup()
		_, err := uc.Register(ctx, 6, "", "")
		if !errors.Is(err, domain.ErrUsernameRequired) {
			t.Errorf("expected ErrUsernameRequired, got %v", err)
		}
	})
}

func TestUserUseCase_GetProfile(t *testing.T) {
	ctx := context.Background()
	_, clock := newTestClock(time.Now())
	users := NewMockUserRepo()
	invites := NewMockInviteRepo()
	users.Invites = invites
	uc := usecase.NewUserUseCase(users, invites, NewMockTxManager(), clock, newTestLogger())

	if _, err := uc.GetProfile(ctx, 1); !errors.Is(err, domain.ErrNotRegistered) {
		t.Errorf("expected ErrNotRegistered, got %v", err)
	}

	users.Seed(&model.User{UserID: 1, Username: "alice", Score: 7})
	_ = invites.CreateIfAbsent(ctx, nil, &model.Invite{UserID: 1, Code: "c0de", InviteCount: 0})
	_ = invites.IncrementCount(ctx, nil, 1)

	p, err := uc.GetProfile(ctx, 1)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Score != 7 || p.InviteCount != 1 {
		t.Errorf("unexpected profile %+v", p)
	}

	ok, err := uc.IsRegistered(ctx, 1)
	if err != nil || !ok {
		t.Errorf("expected registered, got %v, %v", ok, err)
	}
	ok, err = uc.IsRegistered(ctx, 2)
	if err != nil || ok {
		t.Errorf("expected unregistered, got %v, %v", ok, err)
	}
}

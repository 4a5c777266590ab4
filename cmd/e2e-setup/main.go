package main

import (
	"context"
	"flag"
	"log"
	"time"

	"telegram-membership-bot/internal/config"
	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/db/postgres"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/redis"
	"telegram-membership-bot/internal/usecase"
)

// This script is for setting up a clean, predictable database state
// for manual end-to-end testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger := logging.New(cfg.Log, true)
	clock, err := domain.NewCivilClock(cfg.Ledger.Timezone)
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	// --- Connect to Redis ---
	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisClient.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	// 1. Clean the Redis cache to remove rate-limit counters, locks and cached gate answers.
	log.Println("[1/4] Wiping Redis cache...")
	if err := redisClient.FlushDB(ctx); err != nil {
		log.Fatalf("failed to flush redis: %v", err)
	}

	// 2. Clean the database completely.
	log.Println("[2/4] Wiping all existing database data...")
	_, err = pool.Exec(ctx, `
		TRUNCATE
			invite_logs, invites, user_checkins, active_codes, users
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	userRepo := postgres.NewUserRepo(pool)
	inviteRepo := postgres.NewInviteRepo(pool)

	// 3. Seed users: an inviter with a known code and a member whose expiry has passed.
	log.Println("[3/4] Seeding users...")
	now := clock.Now()
	inviter, _ := model.NewUser(1001, "e2e_inviter", now.Add(-72*time.Hour))
	lapsed, _ := model.NewUser(1002, "e2e_lapsed_member", now.Add(-72*time.Hour))
	for _, u := range []*model.User{inviter, lapsed} {
		if err := userRepo.Create(ctx, repository.NoTX, u); err != nil {
			log.Fatalf("failed to create user %d: %v", u.UserID, err)
		}
	}
	if err := inviteRepo.CreateIfAbsent(ctx, repository.NoTX, &model.Invite{UserID: inviter.UserID, Code: "e2e0invite01"}); err != nil {
		log.Fatalf("failed to create invite: %v", err)
	}
	expired := now.Add(-time.Hour)
	if err := userRepo.SetMembership(ctx, repository.NoTX, lapsed.UserID, model.TierMember, &expired); err != nil {
		log.Fatalf("failed to set membership: %v", err)
	}

	// 4. Provision one code of each kind.
	log.Println("[4/4] Provisioning activation codes...")
	activationUC := usecase.NewActivationUseCase(userRepo, postgres.NewActivationCodeRepo(pool), postgres.NewTxManager(pool), clock, logger)
	days, points := 30, int64(100)
	for _, req := range []usecase.ProvisionRequest{
		{Type: model.CodeTypeMembership, Count: 1, ExpireDays: &days},
		{Type: model.CodeTypePoints, Count: 1, Points: &points},
	} {
		codes, err := activationUC.Provision(ctx, req)
		if err != nil {
			log.Fatalf("failed to provision %s code: %v", req.Type, err)
		}
		log.Printf("  %s code: %s", req.Type, codes[0].Code)
	}

	log.Println("  invite link code: e2e0invite01")
	log.Println("--- ✅ E2E Environment Setup Complete ---")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"telegram-membership-bot/internal/config"
	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/infra/api"
	pg "telegram-membership-bot/internal/infra/db/postgres"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/usecase"
)

// seed provisions activation codes directly against the database, or mints an admin API token.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	codeType := flag.String("type", "membership", "code type: membership|points")
	count := flag.Int("count", 10, "number of codes to create")
	days := flag.Int("days", 30, "membership days (membership codes; 0 = no expiry)")
	points := flag.Int64("points", 0, "points granted (points codes)")
	mintToken := flag.Duration("mint-admin-token", 0, "print an admin API token valid for this long and exit")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *mintToken > 0 {
		tok, err := api.NewAuthManager(cfg.Admin.JWTSecret).Mint("seed", *mintToken)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	ct, err := model.ParseCodeType(*codeType)
	if err != nil {
		log.Fatalf("type %q: %v", *codeType, err)
	}
	req := usecase.ProvisionRequest{Type: ct, Count: *count}
	switch ct {
	case model.CodeTypeMembership:
		if *days > 0 {
			req.ExpireDays = days
		}
	case model.CodeTypePoints:
		req.Points = points
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := logging.New(cfg.Log, false)
	clock, err := domain.NewCivilClock(cfg.Ledger.Timezone)
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	// Connect Postgres
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	activationUC := usecase.NewActivationUseCase(pg.NewUserRepo(pool), pg.NewActivationCodeRepo(pool), pg.NewTxManager(pool), clock, logger)
	codes, err := activationUC.Provision(ctx, req)
	if err != nil {
		log.Fatalf("provision: %v", err)
	}
	for _, c := range codes {
		fmt.Println(c.Code)
	}
	log.Printf("%d %s codes created", len(codes), ct)
}

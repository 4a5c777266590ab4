// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"telegram-membership-bot/internal/application"
	"telegram-membership-bot/internal/config"
	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/ports/adapter"
	tele "telegram-membership-bot/internal/infra/adapters/telegram"
	"telegram-membership-bot/internal/infra/api"
	"telegram-membership-bot/internal/infra/api/apiv1"
	pg "telegram-membership-bot/internal/infra/db/postgres"
	"telegram-membership-bot/internal/infra/i18n"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
	red "telegram-membership-bot/internal/infra/redis"
	"telegram-membership-bot/internal/infra/sched"
	"telegram-membership-bot/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (.env loading, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	clock, err := domain.NewCivilClock(cfg.Ledger.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("ledger timezone")
	}
	translator, err := i18n.NewEmbeddedTranslator(cfg.Ledger.Locale)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	inviteRepo := pg.NewInviteRepo(pool)
	checkInRepo := pg.NewCheckInRepo(pool)
	codeRepo := pg.NewActivationCodeRepo(pool)

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, inviteRepo, tm, clock, logger)
	inviteUC := usecase.NewInviteUseCase(userRepo, inviteRepo, logger)
	checkInUC := usecase.NewCheckInUseCase(userRepo, checkInRepo, tm, clock, logger)
	activationUC := usecase.NewActivationUseCase(userRepo, codeRepo, tm, clock, logger)
	membershipUC := usecase.NewMembershipUseCase(userRepo, logger)

	// ---- Telegram ----
	var (
		gateway adapter.TelegramBotAdapter
		checker adapter.ChannelMembershipChecker
		bot     *tele.RealTelegramBotAdapter
	)
	switch strings.ToLower(cfg.Bot.Mode) {
	case "noop":
		noop := tele.NewNoopBotAdapter(logger)
		gateway, checker = noop, noop
		logger.Warn().Msg("bot.mode=noop: messages are logged, not sent")
	default:
		if cfg.Bot.Mode != "polling" {
			logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
		}
		bot, err = tele.NewRealTelegramBotAdapter(cfg.Bot, rateLimiter, translator, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		gateway, checker = bot, bot
	}

	var gate adapter.ChannelMembershipChecker
	if cfg.Bot.ChannelID != "" {
		gate = red.NewMembershipCache(redisClient, checker, cfg.Bot.ChannelCacheTTL, logger)
	} else {
		logger.Warn().Msg("bot.channel_id not set; channel gate disabled")
	}

	// ---- Facade ----
	facade := application.NewBotFacade(userUC, inviteUC, checkInUC, activationUC, gateway, gate, translator, clock,
		application.Links{
			BotUsername:     cfg.Bot.Username,
			ChannelURL:      cfg.Bot.ChannelURL,
			TutorialURL:     cfg.Bot.TutorialURL,
			LangPackURL:     cfg.Bot.LangPackURL,
			LangPackHantURL: cfg.Bot.LangPackHantURL,
		}, logger)

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Str("component", name).Msg("component stopped")
				stop()
			}
		}()
	}

	if bot != nil {
		if err := bot.SetMenuCommands(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to publish menu commands")
		}
		run("telegram", func(ctx context.Context) error { return bot.StartPolling(ctx, facade) })
	}

	// ---- Expiry worker (hourly) ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, membershipUC, locker, clock, logger)
	run("expiry_worker", worker.Run)

	// ---- Admin HTTP ----
	v1 := apiv1.NewServer(activationUC, userUC, logger)
	router := api.NewRouter(v1, api.NewAuthManager(cfg.Admin.JWTSecret), map[string]api.HealthFunc{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
		"redis":    redisClient.Ping,
	}, logger)
	run("admin_http", api.NewServer(cfg.Admin.Port, router, logger).Run)

	run("pool_stats", func(ctx context.Context) error {
		pg.ReportPoolStats(ctx, pool, 15*time.Second)
		return nil
	})

	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	wg.Wait()
	logger.Info().Msg("bye")
}

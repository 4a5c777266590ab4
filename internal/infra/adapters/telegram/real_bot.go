package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/application"
	"telegram-membership-bot/internal/config"
	"telegram-membership-bot/internal/domain/ports/adapter"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
	red "telegram-membership-bot/internal/infra/redis"
)

var (
	_ adapter.TelegramBotAdapter       = (*RealTelegramBotAdapter)(nil)
	_ adapter.ChannelMembershipChecker = (*RealTelegramBotAdapter)(nil)
)

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter uses tgbotapi to poll updates and hands them to a Dispatcher.
type RealTelegramBotAdapter struct {
	bot         botAPI
	cfg         config.BotConfig
	rateLimiter rateLimiter
	translator  application.Translator
	log         *zerolog.Logger

	adminIDsMap   map[int64]struct{}
	updateWorkers int
	dispatcher    application.Dispatcher
	cancelPolling context.CancelFunc
}

func NewRealTelegramBotAdapter(cfg config.BotConfig, limiter *red.RateLimiter, translator application.Translator, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg.Token == "" {
		return nil, errors.New("bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	var rl rateLimiter
	if limiter != nil {
		rl = limiter
	}
	return newAdapter(bot, cfg, rl, translator, logger), nil
}

func newAdapter(bot botAPI, cfg config.BotConfig, rl rateLimiter, translator application.Translator, logger *zerolog.Logger) *RealTelegramBotAdapter {
	adminMap := map[int64]struct{}{}
	for _, id := range cfg.AdminIDs {
		adminMap[id] = struct{}{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		rateLimiter:   rl,
		translator:    translator,
		log:           logger,
		adminIDsMap:   adminMap,
		updateWorkers: workers,
	}
}

// StartPolling blocks until ctx is cancelled, feeding updates to a fixed pool of workers.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context, d application.Dispatcher) error {
	if d == nil {
		return errors.New("dispatcher is nil")
	}
	r.dispatcher = d

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range updateChan {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update handling failed")
				}
			}
		}(i)
	}

	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				close(updateChan)
				wg.Wait()
				return nil
			}
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage delivers text with an optional inline keyboard, threaded to ReplyToMessageID when set.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	msg := tgbotapi.NewMessage(p.ChatID, p.Text)
	msg.ParseMode = p.ParseMode
	if p.ReplyToMessageID != 0 {
		msg.ReplyToMessageID = p.ReplyToMessageID
		msg.AllowSendingWithoutReply = true
	}
	if kb := inlineKeyboard(p.Buttons); kb != nil {
		msg.ReplyMarkup = *kb
	}

	if _, err := r.bot.Send(msg); err != nil {
		metrics.IncTelegramSendError()
		logging.With(ctx, r.log).Error().Err(err).Int64("chat_id", p.ChatID).Msg("send message failed")
		return err
	}
	return nil
}

// inlineKeyboard converts button rows; URL buttons open a link, the rest send callback data.
func inlineKeyboard(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				out = append(out, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				out = append(out, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				out = append(out, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, out)
	}
	if len(kbRows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &markup
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	cmd, ok := toCommand(update)
	if update.CallbackQuery != nil {
		// stop the client spinner whatever happens next
		defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")) }()
	}
	if !ok {
		return nil
	}

	ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	ctx = logging.WithTgID(ctx, cmd.SenderID)
	ctx = logging.WithChatID(ctx, cmd.ChatID)
	metrics.IncTelegramCommand(cmd.Name)

	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(cmd.SenderID), r.cfg.CommandRateLimit, time.Minute)
		if err != nil {
			logging.With(ctx, r.log).Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			metrics.IncRateLimitTriggered()
			return r.SendMessage(ctx, adapter.SendMessageParams{ChatID: cmd.ChatID, Text: r.translator.T("rate_limited")})
		}
	}

	if _, adminOnly := adminCommands[cmd.Name]; adminOnly {
		return r.adminOnly(ctx, cmd)
	}
	return r.dispatcher.Dispatch(ctx, cmd)
}

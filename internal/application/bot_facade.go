package application

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/adapter"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
	"telegram-membership-bot/internal/usecase"
)

var _ Dispatcher = (*BotFacade)(nil)

// Callback payloads carried by the inline menu buttons.
const (
	CallbackCheckIn = "checkin"
	CallbackInfo    = "info"
)

type commandHandler func(ctx context.Context, cmd Command) error

// BotFacade composes usecases into bot commands and replies through the gateway.
// Use-case errors are turned into user-facing replies; only delivery failures are returned.
type BotFacade struct {
	users    usecase.UserUseCase
	invites  usecase.InviteUseCase
	checkins usecase.CheckInUseCase
	codes    usecase.ActivationUseCase

	gateway adapter.TelegramBotAdapter
	gate    adapter.ChannelMembershipChecker

	tr     Translator
	clock  *domain.CivilClock
	links  Links
	log    *zerolog.Logger
	routes map[string]commandHandler
}

func NewBotFacade(
	users usecase.UserUseCase,
	invites usecase.InviteUseCase,
	checkins usecase.CheckInUseCase,
	codes usecase.ActivationUseCase,
	gateway adapter.TelegramBotAdapter,
	gate adapter.ChannelMembershipChecker,
	tr Translator,
	clock *domain.CivilClock,
	links Links,
	logger *zerolog.Logger,
) *BotFacade {
	b := &BotFacade{
		users:    users,
		invites:  invites,
		checkins: checkins,
		codes:    codes,
		gateway:  gateway,
		gate:     gate,
		tr:       tr,
		clock:    clock,
		links:    links,
		log:      logger,
	}
	b.routes = map[string]commandHandler{
		"start":   b.handleStart,
		"help":    b.handleHelp,
		"checkin": b.handleCheckIn,
		"info":    b.handleInfo,
		"key":     b.handleKey,
		"invite":  b.handleInvite,
		"stats":   b.handleStats,
	}
	return b
}

// Dispatch routes cmd to its handler. Unknown commands are ignored.
func (b *BotFacade) Dispatch(ctx context.Context, cmd Command) error {
	h, ok := b.routes[strings.ToLower(cmd.Name)]
	if !ok {
		logging.With(ctx, b.log).Debug().Str("command", cmd.Name).Msg("unknown command ignored")
		return nil
	}
	return h(ctx, cmd)
}

func (b *BotFacade) handleStart(ctx context.Context, cmd Command) error {
	if !cmd.Private() {
		return nil
	}
	log := logging.With(ctx, b.log)

	registered, err := b.users.IsRegistered(ctx, cmd.SenderID)
	if err != nil {
		log.Error().Err(err).Msg("start: registration lookup failed")
		return b.replyText(ctx, cmd, b.tr.T("generic_error"))
	}
	if registered {
		return b.sendHelp(ctx, cmd)
	}
	if strings.TrimSpace(cmd.Username) == "" {
		return b.replyText(ctx, cmd, b.tr.T("username_required"))
	}

	res, err := b.users.Register(ctx, cmd.SenderID, cmd.Username, cmd.Args)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		return b.replyText(ctx, cmd, b.tr.T("already_registered"))
	case errors.Is(err, domain.ErrUsernameRequired):
		return b.replyText(ctx, cmd, b.tr.T("username_required"))
	case err != nil:
		log.Error().Err(err).Msg("start: register failed")
		return b.replyText(ctx, cmd, b.tr.T("generic_error"))
	}

	metrics.IncUsersRegistered()
	switch res.Attribution {
	case usecase.AttributionCredited:
		metrics.IncInviteAttributed()
		metrics.AddPointsGranted("invite", 1)
	case usecase.AttributionUnresolved:
		metrics.IncInviteCodeUnresolved()
	}
	log.Info().Str("attribution", string(res.Attribution)).Msg("user registered")
	return b.replyText(ctx, cmd, b.tr.T("welcome"))
}

func (b *BotFacade) handleHelp(ctx context.Context, cmd Command) error {
	if !cmd.Private() {
		return b.replyText(ctx, cmd, b.tr.T("private_only"))
	}
	return b.sendHelp(ctx, cmd)
}

func (b *BotFacade) sendHelp(ctx context.Context, cmd Command) error {
	name := cmd.FirstName
	if name == "" {
		name = cmd.Username
	}
	var rows [][]adapter.InlineButton
	rows = append(rows, []adapter.InlineButton{
		{Text: b.tr.T("btn_checkin"), Data: CallbackCheckIn},
		{Text: b.tr.T("btn_info"), Data: CallbackInfo},
	})
	if b.links.TutorialURL != "" {
		rows = append(rows, []adapter.InlineButton{{Text: b.tr.T("btn_tutorial"), URL: b.links.TutorialURL}})
	}
	var langRow []adapter.InlineButton
	if b.links.LangPackURL != "" {
		langRow = append(langRow, adapter.InlineButton{Text: b.tr.T("btn_lang_hans"), URL: b.links.LangPackURL})
	}
	if b.links.LangPackHantURL != "" {
		langRow = append(langRow, adapter.InlineButton{Text: b.tr.T("btn_lang_hant"), URL: b.links.LangPackHantURL})
	}
	if len(langRow) > 0 {
		rows = append(rows, langRow)
	}

	err := b.gateway.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:           cmd.ChatID,
		Text:             b.tr.T("help_greeting", esc(name)),
		ParseMode:        adapter.ParseModeMarkdownV2,
		ReplyToMessageID: cmd.MessageID,
		Buttons:          rows,
	})
	if err != nil {
		logging.With(ctx, b.log).Error().Err(err).Msg("help menu delivery failed")
		return b.replyText(ctx, cmd, b.tr.T("help_failed"))
	}
	return nil
}

func (b *BotFacade) handleCheckIn(ctx context.Context, cmd Command) error {
	if ok, err := b.passGate(ctx, cmd); !ok {
		return err
	}

	res, err := b.checkins.CheckIn(ctx, cmd.SenderID, b.clock.Now())
	switch {
	case errors.Is(err, domain.ErrAlreadyCheckedIn):
		metrics.IncCheckIn("already")
		return b.replyText(ctx, cmd, b.tr.T("checkin_already"))
	case errors.Is(err, domain.ErrNotRegistered):
		metrics.IncCheckIn("not_registered")
		return b.replyText(ctx, cmd, b.tr.T("not_registered"))
	case err != nil:
		metrics.IncCheckIn("error")
		logging.With(ctx, b.log).Error().Err(err).Msg("checkin failed")
		return b.replyText(ctx, cmd, b.tr.T("generic_error"))
	}

	metrics.IncCheckIn("ok")
	metrics.AddPointsGranted("checkin", model.CheckInReward)
	return b.replyText(ctx, cmd, b.tr.T("checkin_success", model.CheckInReward, res.Score))
}

func (b *BotFacade) handleInfo(ctx context.Context, cmd Command) error {
	if ok, err := b.passGate(ctx, cmd); !ok {
		return err
	}

	p, err := b.users.GetProfile(ctx, cmd.SenderID)
	switch {
	case errors.Is(err, domain.ErrNotRegistered):
		return b.replyText(ctx, cmd, b.tr.T("not_registered"))
	case err != nil:
		logging.With(ctx, b.log).Error().Err(err).Msg("info: profile lookup failed")
		return b.replyText(ctx, cmd, b.tr.T("info_error"))
	}
	return b.reply(ctx, cmd, renderProfile(b.tr, b.clock, p), adapter.ParseModeMarkdownV2, nil)
}

func (b *BotFacade) handleKey(ctx context.Context, cmd Command) error {
	code := strings.TrimSpace(cmd.Args)
	if code == "" {
		return b.reply(ctx, cmd, b.tr.T("key_usage"), adapter.ParseModeMarkdownV2, nil)
	}

	res, err := b.codes.Redeem(ctx, code, cmd.SenderID)
	switch {
	case errors.Is(err, domain.ErrInvalidOrUsedCode):
		metrics.IncRedemption("invalid", "unknown")
		logging.With(ctx, b.log).Info().Str("code", logging.Redact(code, false)).Msg("key: code rejected")
		return b.reply(ctx, cmd, b.tr.T("key_failed"), adapter.ParseModeMarkdownV2, nil)
	case errors.Is(err, domain.ErrNotRegistered):
		metrics.IncRedemption("not_registered", "unknown")
		return b.replyText(ctx, cmd, b.tr.T("not_registered"))
	case err != nil:
		metrics.IncRedemption("error", "unknown")
		logging.With(ctx, b.log).Error().Err(err).Msg("key: redeem failed")
		return b.replyText(ctx, cmd, b.tr.T("generic_error"))
	}

	metrics.IncRedemption("ok", res.Code.Type.String())
	if res.Code.Type == model.CodeTypePoints && res.Code.Points != nil {
		metrics.AddPointsGranted("activation_code", *res.Code.Points)
	}
	return b.reply(ctx, cmd, renderRedemption(b.tr, b.clock, res), adapter.ParseModeMarkdownV2, nil)
}

func (b *BotFacade) handleInvite(ctx context.Context, cmd Command) error {
	code, err := b.invites.GetOrCreateInviteCode(ctx, cmd.SenderID)
	switch {
	case errors.Is(err, domain.ErrNotRegistered):
		return b.replyText(ctx, cmd, b.tr.T("not_registered"))
	case err != nil:
		logging.With(ctx, b.log).Error().Err(err).Msg("invite: code issuance failed")
		return b.replyText(ctx, cmd, b.tr.T("generic_error"))
	}
	return b.reply(ctx, cmd, b.tr.T("invite_link", esc(inviteLink(b.links.BotUsername, code))), adapter.ParseModeMarkdownV2, nil)
}

// handleStats is admin-only; the transport enforces the allow-list.
func (b *BotFacade) handleStats(ctx context.Context, cmd Command) error {
	n, err := b.users.Count(ctx)
	if err != nil {
		logging.With(ctx, b.log).Error().Err(err).Msg("stats: count failed")
		return b.replyText(ctx, cmd, b.tr.T("generic_error"))
	}
	return b.replyText(ctx, cmd, b.tr.T("stats_users", n))
}

// passGate checks channel membership and sends the join prompt when it fails.
// The returned error is only a delivery error of that prompt.
func (b *BotFacade) passGate(ctx context.Context, cmd Command) (bool, error) {
	if b.gate == nil {
		return true, nil
	}
	member, err := b.gate.IsChannelMember(ctx, cmd.SenderID)
	if err != nil {
		logging.With(ctx, b.log).Warn().Err(err).Msg("channel membership check failed")
	}
	if member {
		return true, nil
	}
	var buttons [][]adapter.InlineButton
	if b.links.ChannelURL != "" {
		buttons = [][]adapter.InlineButton{{{Text: b.tr.T("btn_join_channel"), URL: b.links.ChannelURL}}}
	}
	return false, b.reply(ctx, cmd, b.tr.T("join_channel"), adapter.ParseModeNone, buttons)
}

func (b *BotFacade) replyText(ctx context.Context, cmd Command, text string) error {
	return b.reply(ctx, cmd, text, adapter.ParseModeNone, nil)
}

func (b *BotFacade) reply(ctx context.Context, cmd Command, text, parseMode string, buttons [][]adapter.InlineButton) error {
	return b.gateway.SendMessage(ctx, adapter.SendMessageParams{
		ChatID:           cmd.ChatID,
		Text:             text,
		ParseMode:        parseMode,
		ReplyToMessageID: cmd.MessageID,
		Buttons:          buttons,
	})
}

package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-membership-bot/internal/application"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
)

// adminCommands are dispatched only for senders listed in bot.admin_ids.
var adminCommands = map[string]struct{}{
	"stats": {},
}

// menuCommands is the public command list shown in the Telegram client, with its description key.
var menuCommands = []struct {
	Name string
	Key  string
}{
	{"start", "cmd_start"},
	{"help", "cmd_help"},
	{"checkin", "cmd_checkin"},
	{"info", "cmd_info"},
	{"key", "cmd_key"},
	{"invite", "cmd_invite"},
}

// toCommand extracts a dispatchable command from a slash message or an inline callback.
func toCommand(update tgbotapi.Update) (application.Command, bool) {
	if q := update.CallbackQuery; q != nil {
		return callbackCommand(q)
	}

	message := update.Message
	if message == nil || message.From == nil || message.Chat == nil || !message.IsCommand() {
		return application.Command{}, false
	}
	return application.Command{
		Name:      strings.ToLower(message.Command()),
		Args:      strings.TrimSpace(message.CommandArguments()),
		SenderID:  message.From.ID,
		Username:  message.From.UserName,
		FirstName: message.From.FirstName,
		ChatID:    message.Chat.ID,
		ChatKind:  message.Chat.Type,
		MessageID: message.MessageID,
	}, true
}

// adminOnly drops admin commands from anyone outside the allow-list.
func (r *RealTelegramBotAdapter) adminOnly(ctx context.Context, cmd application.Command) error {
	if _, isAdmin := r.adminIDsMap[cmd.SenderID]; !isAdmin {
		metrics.IncAdminRequest("/"+cmd.Name, "unauthorized")
		logging.With(ctx, r.log).Warn().Str("command", cmd.Name).Msg("admin command from non-admin")
		return nil
	}
	metrics.IncAdminRequest("/"+cmd.Name, "authorized")
	return r.dispatcher.Dispatch(ctx, cmd)
}

// SetMenuCommands publishes the public command list to Telegram.
func (r *RealTelegramBotAdapter) SetMenuCommands(ctx context.Context) error {
	cmds := make([]tgbotapi.BotCommand, 0, len(menuCommands))
	for _, c := range menuCommands {
		cmds = append(cmds, tgbotapi.BotCommand{Command: c.Name, Description: r.translator.T(c.Key)})
	}
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		return err
	}
	logging.With(ctx, r.log).Debug().Int("commands", len(cmds)).Msg("menu commands published")
	return nil
}

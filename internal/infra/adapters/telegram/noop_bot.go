package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain/ports/adapter"
)

var (
	_ adapter.TelegramBotAdapter       = (*NoopBotAdapter)(nil)
	_ adapter.ChannelMembershipChecker = (*NoopBotAdapter)(nil)
)

// NoopBotAdapter logs outbound messages instead of sending them. Used in dev mode.
// Every user counts as a channel member.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, p adapter.SendMessageParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().
		Int64("chat_id", p.ChatID).
		Int("reply_to", p.ReplyToMessageID).
		Str("parse_mode", p.ParseMode).
		Int("button_rows", len(p.Buttons)).
		Str("text", p.Text).
		Msg("[noop-telegram] send")
	return nil
}

func (b *NoopBotAdapter) IsChannelMember(_ context.Context, _ int64) (bool, error) {
	return true, nil
}

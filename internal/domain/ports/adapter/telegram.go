// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Parse modes understood by the gateway.
const (
	ParseModeNone       = ""
	ParseModeMarkdownV2 = "MarkdownV2"
)

// InlineButton is either a callback button (Data) or a link button (URL).
type InlineButton struct {
	Text string
	Data string
	URL  string
}

type SendMessageParams struct {
	ChatID           int64
	Text             string
	ParseMode        string
	ReplyToMessageID int
	Buttons          [][]InlineButton
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, p SendMessageParams) error
}

// ChannelMembershipChecker reports whether a user has joined the configured channel.
// Implementations treat provider failures as "not a member".
type ChannelMembershipChecker interface {
	IsChannelMember(ctx context.Context, userID int64) (bool, error)
}

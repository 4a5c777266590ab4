package application

import (
	"context"
)

// ---- small interfaces to decouple the facade from concrete infra types ----

// Translator resolves a message key to localized text.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Dispatcher is what the telegram adapter hands every inbound command to.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd Command) error
}

// ChatPrivate is the Telegram chat type of a one-to-one conversation with the bot.
const ChatPrivate = "private"

// Command is one inbound slash command or inline callback, already stripped of transport details.
type Command struct {
	Name      string // without leading slash, e.g. "start", "checkin"
	Args      string
	SenderID  int64
	Username  string
	FirstName string
	ChatID    int64
	ChatKind  string // Telegram chat type: private, group, supergroup, channel
	MessageID int
}

func (c Command) Private() bool { return c.ChatKind == ChatPrivate }

// Links holds the URLs and handles rendered into menus.
type Links struct {
	BotUsername     string
	ChannelURL      string
	TutorialURL     string
	LangPackURL     string
	LangPackHantURL string
}

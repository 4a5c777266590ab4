package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-membership-bot/internal/application"
)

// callbackCommand maps inline button data to a command. The originating menu message,
// when present, supplies the chat and the message the reply is threaded to.
func callbackCommand(q *tgbotapi.CallbackQuery) (application.Command, bool) {
	if q.From == nil {
		return application.Command{}, false
	}
	data := strings.TrimSpace(q.Data)
	if data == "" {
		return application.Command{}, false
	}

	cmd := application.Command{
		Name:      data,
		SenderID:  q.From.ID,
		Username:  q.From.UserName,
		FirstName: q.From.FirstName,
		ChatID:    q.From.ID,
		ChatKind:  application.ChatPrivate,
	}
	if q.Message != nil && q.Message.Chat != nil {
		cmd.ChatID = q.Message.Chat.ID
		cmd.ChatKind = q.Message.Chat.Type
		cmd.MessageID = q.Message.MessageID
	}
	// only the name is case-insensitive; args may carry activation codes
	if name, args, ok := strings.Cut(data, ":"); ok {
		cmd.Name, cmd.Args = name, strings.TrimSpace(args)
	}
	cmd.Name = strings.ToLower(cmd.Name)
	return cmd, true
}

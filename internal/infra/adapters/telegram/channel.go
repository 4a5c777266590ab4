package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-membership-bot/internal/domain"
)

// IsChannelMember asks Telegram for the user's status in the configured channel.
// Provider errors yield (false, ErrGatewayUnavailable).
func (r *RealTelegramBotAdapter) IsChannelMember(ctx context.Context, userID int64) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	cfg := tgbotapi.GetChatMemberConfig{ChatConfigWithUser: channelUser(r.cfg.ChannelID, userID)}
	member, err := r.bot.GetChatMember(cfg)
	if err != nil {
		return false, fmt.Errorf("%w: get chat member: %v", domain.ErrGatewayUnavailable, err)
	}
	return isMemberStatus(member.Status), nil
}

func channelUser(channelID string, userID int64) tgbotapi.ChatConfigWithUser {
	c := tgbotapi.ChatConfigWithUser{UserID: userID}
	channelID = strings.TrimSpace(channelID)
	if id, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		c.ChatID = id
	} else {
		c.SuperGroupUsername = "@" + strings.TrimPrefix(channelID, "@")
	}
	return c
}

// isMemberStatus reports whether a chat member status counts as joined.
func isMemberStatus(status string) bool {
	switch status {
	case "creator", "administrator", "member":
		return true
	default:
		return false
	}
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain/ports/adapter"
	"telegram-membership-bot/internal/infra/metrics"
)

var _ adapter.ChannelMembershipChecker = (*MembershipCache)(nil)

// MembershipCache remembers positive channel-membership answers for ttl.
// Negative answers are never cached so a user who just joined passes on the next try.
type MembershipCache struct {
	client RedisClient
	next   adapter.ChannelMembershipChecker
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewMembershipCache(client RedisClient, next adapter.ChannelMembershipChecker, ttl time.Duration, logger *zerolog.Logger) *MembershipCache {
	return &MembershipCache{client: client, next: next, ttl: ttl, log: logger}
}

func channelMemberKey(userID int64) string {
	return fmt.Sprintf("channel_member:%d", userID)
}

func (c *MembershipCache) IsChannelMember(ctx context.Context, userID int64) (bool, error) {
	key := channelMemberKey(userID)
	v, err := c.client.Get(ctx, key)
	switch {
	case err == nil && v == "1":
		metrics.IncCacheRequest("channel_member", "hit")
		return true, nil
	case err != nil && !errors.Is(err, Nil):
		// fall through to the provider
		c.log.Warn().Err(err).Int64("tg_id", userID).Msg("membership cache read failed")
	}
	metrics.IncCacheRequest("channel_member", "miss")

	member, err := c.next.IsChannelMember(ctx, userID)
	if err != nil || !member {
		return member, err
	}
	if err := c.client.Set(ctx, key, "1", c.ttl); err != nil {
		c.log.Warn().Err(err).Int64("tg_id", userID).Msg("membership cache write failed")
	}
	return true, nil
}

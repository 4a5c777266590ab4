package model

import (
	"strings"
	"time"

	"telegram-membership-bot/internal/domain"
)

// Tier is the membership classification of a user.
type Tier int16

const (
	TierBanned Tier = 0
	TierNormal Tier = 1
	TierMember Tier = 2
)

func (t Tier) String() string {
	switch t {
	case TierBanned:
		return "banned"
	case TierNormal:
		return "normal"
	case TierMember:
		return "member"
	default:
		return "unknown"
	}
}

// User is a Telegram user enrolled in the loyalty scheme. Rows are never deleted.
type User struct {
	UserID       int64
	Username     string
	Score        int64
	RegisteredAt time.Time
	Tier         Tier
	ExpireTime   *time.Time // nil unless Tier is TierMember with a paid duration
}

// NewUser validates and builds a freshly registered user: zero points, normal tier.
func NewUser(userID int64, username string, registeredAt time.Time) (*User, error) {
	if userID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(username) == "" {
		return nil, domain.ErrUsernameRequired
	}
	return &User{
		UserID:       userID,
		Username:     username,
		Score:        0,
		RegisteredAt: registeredAt,
		Tier:         TierNormal,
	}, nil
}


// MembershipLapsed reports whether the user carries an expiry at or before now.
func (u *User) MembershipLapsed(now time.Time) bool {
	return u.ExpireTime != nil && !u.ExpireTime.After(now)
}

// Profile is the read model behind the info screen.
type Profile struct {
	User
	InviteCount int
}

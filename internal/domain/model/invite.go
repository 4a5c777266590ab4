package model

import "time"

// Invite is the referral code owned by a user. The code never changes once issued.
type Invite struct {
	UserID      int64
	Code        string
	InviteCount int
}

// InviteLog is an append-only attribution record written when a new user
// registers with a valid invite code.
type InviteLog struct {
	ID        int64
	InviterID int64
	InvitedID int64
	CreatedAt time.Time
}

package model

import (
	"strings"
	"time"

	"telegram-membership-bot/internal/domain"
)

// CodeType discriminates what an activation code grants.
type CodeType int16

const (
	CodeTypePoints     CodeType = 0
	CodeTypeMembership CodeType = 1
)

func (t CodeType) String() string {
	switch t {
	case CodeTypePoints:
		return "points"
	case CodeTypeMembership:
		return "membership"
	default:
		return "unknown"
	}
}

// ParseCodeType accepts the names produced by String.
func ParseCodeType(s string) (CodeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "points":
		return CodeTypePoints, nil
	case "membership":
		return CodeTypeMembership, nil
	default:
		return 0, domain.ErrInvalidArgument
	}
}

// ActivationCode is a single-use code granting either membership or points.
// Used flips from false to true exactly once.
type ActivationCode struct {
	ID         string
	Code       string
	Used       bool
	Type       CodeType
	ExpireDays *int   // membership codes; nil grants the tier without an expiry
	Points     *int64 // points codes
	UsedBy     *int64
	UsedAt     *time.Time
	CreatedAt  time.Time
}

// Validate checks the payload matches the type.
func (c *ActivationCode) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return domain.ErrInvalidArgument
	}
	switch c.Type {
	case CodeTypeMembership:
		if c.ExpireDays != nil && *c.ExpireDays <= 0 {
			return domain.ErrInvalidArgument
		}
	case CodeTypePoints:
		if c.Points == nil || *c.Points <= 0 {
			return domain.ErrInvalidArgument
		}
	default:
		return domain.ErrInvalidArgument
	}
	return nil
}

// RedemptionResult describes the effect a redemption had on the user.
type RedemptionResult struct {
	Code       ActivationCode
	Tier       Tier
	ExpireTime *time.Time
	Score      int64
}

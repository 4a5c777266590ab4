package model

import "time"

// CheckInCooldown is the minimum time between two credited check-ins.
const CheckInCooldown = 24 * time.Hour

// CheckInReward is the number of points granted per successful check-in.
const CheckInReward = 1

type CheckIn struct {
	UserID          int64
	LastCheckInTime time.Time
}

// Eligible reports whether a check-in at now would be credited.
func (c *CheckIn) Eligible(now time.Time) bool {
	return now.Sub(c.LastCheckInTime) >= CheckInCooldown
}

func (c *CheckIn) NextEligibleAt() time.Time {
	return c.LastCheckInTime.Add(CheckInCooldown)
}

// CheckInResult is reported back to dispatch after a credited check-in.
type CheckInResult struct {
	Score          int64
	CheckedInAt    time.Time
	NextEligibleAt time.Time
	FirstTime      bool
}

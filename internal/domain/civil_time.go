package domain

import (
	"fmt"
	"time"
)

// CivilTimeLayout is the sortable textual form used for every displayed timestamp.
const CivilTimeLayout = "2006-01-02 15:04:05"

// DefaultTimezone is the civil zone the ledger compares and renders times in.
const DefaultTimezone = "Asia/Shanghai"

// CivilClock pins all ledger timestamps to one fixed civil timezone with
// whole-second precision, regardless of the host's local zone.
type CivilClock struct {
	loc *time.Location
	now func() time.Time
}

// NewCivilClock loads the named IANA zone. An empty name selects DefaultTimezone.
func NewCivilClock(tz string) (*CivilClock, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &CivilClock{loc: loc, now: time.Now}, nil
}

// NewFixedClock builds a clock whose Now always returns at. Used by tests and tools.
func NewFixedClock(loc *time.Location, at time.Time) *CivilClock {
	if loc == nil {
		loc = time.UTC
	}
	return &CivilClock{loc: loc, now: func() time.Time { return at }}
}

// NewClockFunc builds a clock backed by an arbitrary time source.
func NewClockFunc(loc *time.Location, now func() time.Time) *CivilClock {
	if loc == nil {
		loc = time.UTC
	}
	return &CivilClock{loc: loc, now: now}
}

func (c *CivilClock) Location() *time.Location { return c.loc }

// Now returns the current instant in the civil zone, truncated to the second.
func (c *CivilClock) Now() time.Time { return c.In(c.now()) }

// In normalizes t into the civil zone, truncated to the second.
func (c *CivilClock) In(t time.Time) time.Time {
	return t.In(c.loc).Truncate(time.Second)
}

// Format renders t as YYYY-MM-DD HH:MM:SS in the civil zone.
func (c *CivilClock) Format(t time.Time) string {
	return c.In(t).Format(CivilTimeLayout)
}

// FormatOr renders t, or fallback when t is nil.
func (c *CivilClock) FormatOr(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return c.Format(*t)
}

// MidnightPlusDays returns local midnight of t's civil date, shifted by days.
func (c *CivilClock) MidnightPlusDays(t time.Time, days int) time.Time {
	lt := t.In(c.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day()+days, 0, 0, 0, 0, c.loc)
}

package common

import (
	"strconv"
	"strings"
	"time"
)

// MarketClock answers market-session questions for a single exchange calendar.
// The zero value is unusable; construct with NewMarketClock.
type MarketClock struct {
	location    *time.Location
	openMinute  int // minutes after midnight, local time
	closeMinute int
}

// NewMarketClock builds a clock from a MarketConfig. An unknown timezone falls
// back to a fixed US-Eastern zone so a minimal container without tzdata still
// gets sensible behaviour.
func NewMarketClock(cfg MarketConfig) *MarketClock {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return &MarketClock{
		location:    loc,
		openMinute:  parseClockMinute(cfg.OpenTime, 9*60+30),
		closeMinute: parseClockMinute(cfg.CloseTime, 16*60),
	}
}

// parseClockMinute parses "HH:MM" into minutes after midnight.
func parseClockMinute(s string, fallback int) int {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return fallback
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return fallback
	}
	return h*60 + m
}

// IsOpen reports whether the market is in its regular session at t.
func (c *MarketClock) IsOpen(t time.Time) bool {
	return c.State(t) == "REGULAR"
}

// State returns the market state at t: PRE, REGULAR, POST, or CLOSED.
// PRE covers the 4 hours before open; POST the 4 hours after close.
func (c *MarketClock) State(t time.Time) string {
	local := t.In(c.location)
	weekday := local.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return "CLOSED"
	}
	hour, min, _ := local.Clock()
	minute := hour*60 + min

	switch {
	case minute >= c.openMinute && minute < c.closeMinute:
		return "REGULAR"
	case minute >= c.openMinute-240 && minute < c.openMinute:
		return "PRE"
	case minute >= c.closeMinute && minute < c.closeMinute+240:
		return "POST"
	default:
		return "CLOSED"
	}
}

// Location returns the market timezone.
func (c *MarketClock) Location() *time.Location {
	return c.location
}

// BusinessDays returns every Monday-Friday date in [from, to] inclusive,
// normalized to midnight UTC. Exchange holidays are not modelled.
func BusinessDays(from, to time.Time) []time.Time {
	from = NormalizeDate(from)
	to = NormalizeDate(to)

	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}

// NormalizeDate truncates a timestamp to midnight UTC, the canonical form for
// trading-date keys.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

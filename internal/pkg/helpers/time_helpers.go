package helpers

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// TimestampLayout is the stored/displayed form of dateCreated and friends
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is used for attachment start/end dates and log dates
	DateLayout = "2006-01-02"
)

// ParseDuration parses a duration string, returns default duration on error.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	return duration
}

// CurrentTimestamp formats the local wall clock, optionally without the time part.
func CurrentTimestamp(dateOnly bool) string {
	return FormatTimestamp(time.Now(), dateOnly)
}

// FormatTimestamp formats t as "2006-01-02 15:04:05", or "2006-01-02" when dateOnly.
func FormatTimestamp(t time.Time, dateOnly bool) string {
	if dateOnly {
		return t.Format(DateLayout)
	}
	return t.Format(TimestampLayout)
}

// FormatDate formats a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a "2006-01-02" calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

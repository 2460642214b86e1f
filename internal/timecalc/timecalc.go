package timecalc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the layout of every date exchanged with TimeSync.
const DateLayout = "2006-01-02"

// ClockLayout is the layout of the wall-clock time stored in a session.
const ClockLayout = "15:04"

var durationPattern = regexp.MustCompile(`\A(\d+)h(\d+)m\z`)

// IsValidDuration reports whether s is written as <hours>h<minutes>m, e.g. "4h10m".
func IsValidDuration(s string) bool {
	return durationPattern.MatchString(s)
}

// ParseDuration converts a <hours>h<minutes>m string to total seconds.
func ParseDuration(s string) (int, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q: expected <hours>h<minutes>m", s)
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if hours > (math.MaxInt-minutes*60)/3600 {
		return 0, fmt.Errorf("invalid duration %q: too large", s)
	}
	return hours*3600 + minutes*60, nil
}

// FormatDuration renders seconds as "{h}h{m}m". Leftover seconds are truncated.
func FormatDuration(seconds int) string {
	minutes := seconds / 60
	hours, minutes := minutes/60, minutes%60
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Today returns t's calendar date as YYYY-MM-DD.
func Today(t time.Time) string {
	return t.Format(DateLayout)
}

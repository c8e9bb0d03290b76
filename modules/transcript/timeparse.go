package transcript

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ErrInvalidTime = errors.New("invalid time (use now, 9h, 30m, 7d or dd/mm/yyyy)")

var (
	relativeRe = regexp.MustCompile(`(?i)^(\d+)([mhd])$`)
	dayFirstRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// ParseDuration reads the short durations used by commands: 30m, 9h, 7d.
func ParseDuration(s string) (time.Duration, error) {
	m := relativeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, ErrInvalidTime
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, ErrInvalidTime
	}

	var unit time.Duration
	switch strings.ToLower(m[2]) {
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	if n > int64((1<<63-1)/unit) {
		return 0, ErrInvalidTime
	}
	return time.Duration(n) * unit, nil
}

// ParseTime resolves a transcript bound relative to now. "now" is now, a
// short duration means that long ago, and dates are read day first. Other
// layouts such as ISO 8601 are handed to dateparse.
func ParseTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return time.Time{}, ErrInvalidTime
	case strings.EqualFold(s, "now"):
		return now, nil
	}

	if d, err := ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}

	if m := dayFirstRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		s = fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
	}
	t, err := dateparse.ParseIn(s, now.Location())
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return t, nil
}

package common

import (
	"fmt"
	"time"
)

func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// FormatDuration renders a duration the way moderators read it, e.g. "2d 3h 4m" or "59s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	days := s / 86400
	hours := (s % 86400) / 3600
	mins := (s % 3600) / 60
	secs := s % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

func FormatUser(userID string) string {
	return "<@" + userID + ">"
}

func FormatChannel(channelID string) string {
	return "<#" + channelID + ">"
}

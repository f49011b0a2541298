package domain

import (
	"fmt"
	"math"
	"time"
)

func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func FormatPercent(value *float64) string {
	if value == nil {
		return "—"
	}
	return fmt.Sprintf("%5.1f%%", ClampPercent(*value))
}

// ResetCountdown renders the time until a window resets, rounded up to the
// minute so a reset never reads as further away than it is. Sub-second
// deltas count as "now": a zero-second reset is anchored to the response and
// the render clock always trails it slightly.
func ResetCountdown(now time.Time, resetAt *time.Time) string {
	if resetAt == nil {
		return "—"
	}
	delta := resetAt.Sub(now)
	if delta < time.Second {
		return "now"
	}

	minutes := int(math.Ceil(delta.Minutes()))
	if minutes < 1 {
		minutes = 1
	}

	days := minutes / (24 * 60)
	hours := (minutes / 60) % 24
	mins := minutes % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("in %dd %dh", days, hours)
		}
		return fmt.Sprintf("in %dd", days)
	}
	if hours > 0 {
		if mins > 0 {
			return fmt.Sprintf("in %dh %dm", hours, mins)
		}
		return fmt.Sprintf("in %dh", hours)
	}
	return fmt.Sprintf("in %dm", mins)
}

func ResetAbsolute(resetAt *time.Time) string {
	if resetAt == nil {
		return "—"
	}
	return resetAt.Local().Format("Jan 2, 3:04 PM")
}

// ResetSeconds renders the raw seconds-until-reset form used by plain output.
func ResetSeconds(now time.Time, resetAt *time.Time) string {
	if resetAt == nil {
		return "—"
	}
	delta := resetAt.Sub(now)
	if delta <= 0 {
		return "0s"
	}
	return fmt.Sprintf("%ds", int(delta.Seconds()))
}

func RelativeAge(now time.Time, fetchedAt time.Time) string {
	age := now.Sub(fetchedAt)
	if age < 0 {
		age = 0
	}
	seconds := int(age.Seconds())
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	return fmt.Sprintf("%dd ago", hours/24)
}

// Package format renders metric values for the dashboard and the CLI.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Currency formats a whole-unit amount with thousands separators:
// 1234567.8 in USD is "$1,234,568".
func Currency(amount float64, currency string) string {
	whole := int64(math.Round(amount))
	sign := ""
	if whole < 0 {
		sign = "-"
		whole = -whole
	}
	switch strings.ToUpper(currency) {
	case "", "USD":
		return sign + "$" + humanize.Comma(whole)
	case "EUR":
		return sign + "€" + humanize.Comma(whole)
	case "GBP":
		return sign + "£" + humanize.Comma(whole)
	default:
		return sign + strings.ToUpper(currency) + " " + humanize.Comma(whole)
	}
}

// Compact abbreviates large counts: 1500 is "1.5K", 2300000 is "2.3M".
func Compact(n float64) string {
	switch {
	case n >= 1_000_000:
		return strconv.FormatFloat(n/1_000_000, 'f', 1, 64) + "M"
	case n >= 1_000:
		return strconv.FormatFloat(n/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
}

// Count renders an integer with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// Percentage renders n with one decimal: "99.5%".
func Percentage(n float64) string {
	return fmt.Sprintf("%.1f%%", n)
}

// Date renders a timestamp like "Oct 18, 2026, 09:30 AM" in local time.
func Date(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("Jan 2, 2006, 03:04 PM")
}

// Relative renders how long ago t was, relative to now: "Just now", "5m ago",
// "3h ago", "2d ago".
func Relative(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return "Just now"
	case secs < 3600:
		return fmt.Sprintf("%dm ago", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh ago", secs/3600)
	default:
		return fmt.Sprintf("%dd ago", secs/86400)
	}
}

// Level buckets a service status for coloring.
type Level int

const (
	LevelUnknown Level = iota
	LevelGood
	LevelWarning
	LevelCritical
)

// StatusLevel maps a backend status string to a Level.
func StatusLevel(status string) Level {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "healthy", "active", "online":
		return LevelGood
	case "warning", "degraded":
		return LevelWarning
	case "critical", "error", "offline":
		return LevelCritical
	default:
		return LevelUnknown
	}
}

// UptimeRating grades an uptime percentage.
func UptimeRating(uptime float64) string {
	switch {
	case uptime >= 99.9:
		return "Excellent"
	case uptime >= 99.5:
		return "Good"
	case uptime >= 99.0:
		return "Fair"
	default:
		return "Poor"
	}
}

// PerformanceGrade converts a 0-100 score to a letter grade.
func PerformanceGrade(score float64) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "B+"
	case score >= 80:
		return "B"
	case score >= 75:
		return "C+"
	case score >= 70:
		return "C"
	default:
		return "D"
	}
}

// Latency renders a response time given in milliseconds.
func Latency(ms float64) string {
	if ms >= 1000 {
		return strconv.FormatFloat(ms/1000, 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(ms, 'f', 0, 64) + "ms"
}

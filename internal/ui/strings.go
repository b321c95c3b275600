package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// titleCase converts an underscore-separated string to title case.
func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Split(value, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

// padRight pads s with spaces to width visible cells. Styled text is measured
// without its escape sequences.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// cell truncates then pads plain text to exactly width cells.
func cell(s string, width int) string {
	return padRight(truncate(s, width), width)
}

func nextRole(roles []string, current string) string {
	if current == "" {
		if len(roles) == 0 {
			return ""
		}
		return roles[0]
	}
	for i, r := range roles {
		if r == current {
			if i+1 < len(roles) {
				return roles[i+1]
			}
			return ""
		}
	}
	return ""
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/femg/internal/format"
	"github.com/five82/femg/internal/poller"
	"github.com/five82/femg/internal/views"
)

const logoText = "FEMG Command Center"

// renderHeader renders the tab bar and one freshness chip per mounted view.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	tabs := make([]string, 0, len(views.Pages()))
	for i, p := range views.Pages() {
		label := fmt.Sprintf("%d %s", i+1, p.Title())
		if p == m.page {
			tabs = append(tabs, styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, styles.TabInactive.Render(label))
		}
	}

	line := styles.Logo.Render(logoText) + "  " + strings.Join(tabs, "")
	return styles.Header.Width(m.width).Render(line + "\n" + m.renderStatuses(styles))
}

func (m Model) renderStatuses(styles Styles) string {
	if m.mounted == nil {
		return styles.MutedText.Render("No views mounted")
	}
	latency := m.latencies()
	statuses := m.mounted.Statuses()
	parts := make([]string, 0, len(statuses))
	for _, st := range statuses {
		chip := m.statusChip(styles, st)
		if d, ok := latency[st.View]; ok && st.HasData {
			chip += styles.FaintText.Render(" " + d.String())
		}
		parts = append(parts, styles.MutedText.Render(titleCase(st.View)+" ")+chip)
	}
	return strings.Join(parts, styles.FaintText.Render("  •  "))
}

// latencies returns the average fetch latency per view, rounded to the
// millisecond. Views without a completed fetch are absent.
func (m Model) latencies() map[string]time.Duration {
	if m.monitor == nil {
		return nil
	}
	out := make(map[string]time.Duration)
	for _, st := range m.monitor.Stats() {
		if st.Fetches > 0 {
			out[st.View] = st.AvgLatency.Round(time.Millisecond)
		}
	}
	return out
}

func (m Model) statusChip(styles Styles, st poller.Status) string {
	switch {
	case st.Offline():
		return styles.DangerText.Render("offline")
	case st.Loading && !st.HasData:
		return m.spinner.View() + styles.MutedText.Render(" loading")
	case st.Loading:
		return m.spinner.View() + styles.MutedText.Render(" refreshing")
	case st.Error != "":
		return styles.WarningText.Render("stale")
	case st.HasData:
		return styles.SuccessText.Render("●") + styles.FaintText.Render(" "+format.Relative(st.LastUpdate, m.clock))
	default:
		return styles.FaintText.Render("idle")
	}
}

// renderFooter shows the current action, the last flash message and short help.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()

	var status string
	switch {
	case m.busy != "":
		status = m.spinner.View() + " " + styles.AccentText.Render(m.busy+"...")
	case m.flash != "" && m.flashErr:
		status = styles.DangerText.Render(m.flash)
	case m.flash != "":
		status = styles.InfoText.Render(m.flash)
	}

	helpLine := m.help.ShortHelpView(m.keys.ShortHelp())
	if status == "" {
		return styles.Footer.Width(m.width).Render(helpLine)
	}
	return styles.Footer.Width(m.width).Render(status + "\n" + helpLine)
}

package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/femg/internal/backend"
	"github.com/five82/femg/internal/format"
	"github.com/five82/femg/internal/views"
)

// renderContent renders the body of the active page.
func (m Model) renderContent() string {
	styles := m.theme.Styles()
	if m.mounted == nil {
		return styles.MutedText.Render("Nothing mounted. Press 1-4 to open a page.")
	}

	var sections []string
	switch m.page {
	case views.PageExecutive:
		sections = m.executiveSections(styles)
	case views.PageOperations:
		sections = m.operationsSections(styles)
	case views.PageIntelligence:
		sections = m.intelligenceSections(styles)
	case views.PageAdmin:
		sections = m.adminSections(styles)
	}
	return strings.Join(sections, "\n\n")
}

func errorPanel(styles Styles, msg string) string {
	if msg == "" {
		return ""
	}
	return styles.ErrorPanel.Render(msg + "  (x to dismiss)")
}

func loading(styles Styles, what string) string {
	return styles.MutedText.Render("Loading " + what + "...")
}

// withError prepends the view's error panel, if any, to body.
func withError(styles Styles, errMsg, body string) string {
	if panel := errorPanel(styles, errMsg); panel != "" {
		return panel + "\n" + body
	}
	return body
}

type kpi struct {
	label string
	value string
}

func (m Model) renderKPIs(styles Styles, kpis []kpi) string {
	cards := make([]string, 0, len(kpis))
	for _, k := range kpis {
		cards = append(cards, styles.Panel.Render(
			styles.MutedText.Render(k.label)+"\n"+styles.Text.Bold(true).Render(k.value),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// Executive

func (m Model) executiveSections(styles Styles) []string {
	snap := m.mounted.Executive.Snapshot()
	if !snap.HasData {
		return []string{withError(styles, snap.Error, loading(styles, "executive overview"))}
	}
	d := snap.Data
	latest := d.Latest()

	kpis := m.renderKPIs(styles, []kpi{
		{"Total Revenue", format.Currency(d.TotalRevenue.Float(), "USD")},
		{"Active Users", format.Compact(latest.TotalUsers.Float())},
		{"Total Views", format.Compact(latest.TotalViews.Float())},
		{"Growth Rate", format.Percentage(latest.GrowthRate.Float())},
		{"Engagement", format.Percentage(latest.EngagementRate.Float())},
		{"Healthy Platforms", fmt.Sprintf("%d/%d", d.HealthyPlatforms(), len(d.PlatformHealth))},
	})

	var b strings.Builder
	b.WriteString(styles.Title.Render("Platform Health"))
	for _, name := range d.PlatformNames() {
		score := d.PlatformHealth[name].AvgScore.Float()
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(cell(name, 24)))
		b.WriteString(styles.Score(score).Render(padRight(format.Percentage(score), 8)))
		b.WriteString(styles.MutedText.Render(" " + format.PerformanceGrade(score)))
	}
	if len(d.PlatformHealth) == 0 {
		b.WriteString("\n" + styles.FaintText.Render("No platform health data"))
	}

	return []string{withError(styles, snap.Error, kpis), b.String()}
}

// Operations

func (m Model) operationsSections(styles Styles) []string {
	return []string{m.systemHealthSection(styles), m.missionControlSection(styles)}
}

func (m Model) systemHealthSection(styles Styles) string {
	snap := m.mounted.SystemHealth.Snapshot()
	if !snap.HasData {
		return withError(styles, snap.Error, loading(styles, "system health"))
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("Platform Services"))
	for _, name := range snap.Data.PlatformNames() {
		ps := snap.Data.PlatformStatus[name]
		b.WriteString("\n")
		b.WriteString(styles.Text.Bold(true).Render(cell(name, 24)))
		b.WriteString(styles.Status(ps.OverallStatus).Render(cell(ps.OverallStatus, 10)))
		b.WriteString(styles.MutedText.Render(" avg " + format.Percentage(ps.AvgPerformance.Float())))
		for _, svc := range ps.Services {
			uptime := svc.UptimePercentage.Float()
			b.WriteString("\n  ")
			b.WriteString(styles.Text.Render(cell(titleCase(svc.ServiceName), 20)))
			b.WriteString(styles.Status(svc.Status).Render(cell(svc.Status, 10)))
			b.WriteString(styles.MutedText.Render(fmt.Sprintf("%8s %8s ", format.Latency(svc.ResponseTime.Float()), format.Percentage(uptime))))
			b.WriteString(styles.FaintText.Render(format.UptimeRating(uptime)))
		}
	}
	if len(snap.Data.PlatformStatus) == 0 {
		b.WriteString("\n" + styles.FaintText.Render("No services reporting"))
	}
	return withError(styles, snap.Error, b.String())
}

func (m Model) missionControlSection(styles Styles) string {
	snap := m.mounted.MissionControl.Snapshot()
	if !snap.HasData {
		return withError(styles, snap.Error, loading(styles, "mission control"))
	}
	o := snap.Data.NetworkOverview

	kpis := m.renderKPIs(styles, []kpi{
		{"Platforms", format.Count(int64(o.TotalPlatforms))},
		{"Network Health", format.Percentage(o.PlatformHealth.Float())},
		{"Avg Response", format.Latency(o.AvgResponseTime.Float())},
		{"Total Views", format.Compact(o.TotalViews.Float())},
	})

	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Active Alerts (%d)", len(snap.Data.Alerts))))
	for _, a := range snap.Data.Alerts {
		when := "never"
		if a.Timestamp != nil {
			when = format.Relative(a.Timestamp.Time, m.clock)
		}
		b.WriteString("\n")
		b.WriteString(styles.Status(a.Status).Render(cell(a.Status, 10)))
		b.WriteString(styles.Text.Render(cell(a.Platform+" / "+titleCase(a.Service), 36)))
		b.WriteString(styles.Score(a.Performance.Float()).Render(padRight(format.Percentage(a.Performance.Float()), 8)))
		b.WriteString(styles.FaintText.Render(" " + when))
	}
	if len(snap.Data.Alerts) == 0 {
		b.WriteString("\n" + styles.SuccessText.Render("All systems operational"))
	}
	b.WriteString("\n\n" + styles.FaintText.Render("g generate report  •  c run health check"))

	return withError(styles, snap.Error, kpis+"\n"+b.String())
}

// Business intelligence

func (m Model) intelligenceSections(styles Styles) []string {
	snap := m.mounted.BusinessIntelligence.Snapshot()
	if !snap.HasData {
		return []string{
			withError(styles, snap.Error, loading(styles, "business data")),
			m.missionControlSection(styles),
		}
	}
	d := snap.Data

	kpis := m.renderKPIs(styles, []kpi{
		{"Total Revenue", format.Currency(d.TotalRevenue(), "USD")},
		{"User Growth", format.Count(d.TotalUsers())},
		{"Avg Engagement", format.Percentage(d.AverageEngagement())},
	})

	revenue := append([]backend.PlatformMetric(nil), d.Revenue...)
	sort.SliceStable(revenue, func(i, j int) bool {
		return revenue[i].MetricValue > revenue[j].MetricValue
	})

	var b strings.Builder
	b.WriteString(styles.Title.Render("Revenue by Platform"))
	for _, r := range revenue {
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(cell(r.PlatformID, 24)))
		b.WriteString(styles.AccentText.Render(format.Currency(r.MetricValue.Float(), r.Currency)))
		if r.TimePeriod != "" {
			b.WriteString(styles.FaintText.Render("  " + r.TimePeriod))
		}
	}
	if len(revenue) == 0 {
		b.WriteString("\n" + styles.FaintText.Render("No revenue metrics"))
	}

	return []string{withError(styles, snap.Error, kpis), b.String(), m.missionControlSection(styles)}
}

// Admin

func (m Model) filteredAdmins() []backend.AdminRecord {
	if m.mounted == nil || m.mounted.Admins == nil {
		return nil
	}
	return m.mounted.Admins.Snapshot().Data.Filter(m.search.Value(), m.roleFilter)
}

func (m Model) adminSections(styles Styles) []string {
	snap := m.mounted.Admins.Snapshot()

	var bar string
	if m.searching {
		bar = m.search.View()
	} else {
		role := m.roleFilter
		if role == "" {
			role = "all"
		}
		query := m.search.Value()
		if query == "" {
			query = "-"
		}
		bar = styles.MutedText.Render(fmt.Sprintf("search: %s  role: %s  (/ search, f role, d deactivate)", query, role))
	}

	if !snap.HasData {
		return []string{bar, withError(styles, snap.Error, loading(styles, "admins"))}
	}

	admins := m.filteredAdmins()
	var b strings.Builder
	b.WriteString(styles.Title.Render(fmt.Sprintf("Administrators (%d of %d)", len(admins), len(snap.Data.Admins))))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(cell("NAME", 22) + cell("EMAIL", 28) + cell("ROLE", 14) + cell("STATUS", 10) + "LAST LOGIN"))
	for i, a := range admins {
		last := "never"
		if a.LastLogin != nil {
			last = format.Relative(a.LastLogin.Time, m.clock)
		}
		status := "active"
		if !a.IsActive {
			status = "inactive"
		}
		row := cell(a.Name, 22) + cell(a.Email, 28) + cell(a.Role, 14) + cell(status, 10) + last
		b.WriteString("\n")
		switch {
		case i == m.selected:
			b.WriteString(styles.Selected.Render(row))
		case !a.IsActive:
			b.WriteString(styles.FaintText.Render(row))
		default:
			b.WriteString(styles.Text.Render(row))
		}
	}
	if len(admins) == 0 {
		b.WriteString("\n" + styles.FaintText.Render("No admins match"))
	}

	return []string{bar, withError(styles, snap.Error, b.String())}
}

// Package ui is the terminal dashboard for the FEMG Command Center.
//
// # Architecture
//
// The dashboard is a single Bubble Tea model (app.go). It owns at most one
// mounted page at a time; switching pages unmounts the previous page's views
// before the next page mounts, so no poller outlives its tab.
//
//	Init ──→ mountMsg ──→ views.Mount(page)
//	                           │
//	                           ▼
//	              Mounted.Watch(ctx) ──→ changeMsg ──→ re-render
//	                                         ▲            │
//	                                         └────────────┘
//
// Each mount bumps a generation counter. A changeMsg from an older generation
// is dropped, which retires the watcher of the page that was just unmounted.
//
// # Files
//
//   - app.go: Model, message handling, page lifecycle and commands
//   - header.go: tab bar, per-view freshness chips and footer
//   - pages.go: body rendering for the four pages
//   - help.go: help overlay built on bubbles/help
//   - keys.go: key bindings
//   - theme.go: color themes and lipgloss styles
//   - strings.go: column helpers
//
// # Commands
//
// Blocking work (refresh, report generation, health check, deactivation) runs
// in tea.Cmd functions and reports back with an actionMsg. Only one command
// runs at a time; the footer shows a spinner while it does. Generated reports
// are written with report.Save.
//
// # Errors
//
// Every view error is drawn as a panel above that view's data, which stays on
// screen. Pressing x clears all of them. Action failures are also flashed in
// the footer.
package ui

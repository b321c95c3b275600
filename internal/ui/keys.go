package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	NextPage   key.Binding
	PrevPage   key.Binding
	Pages      [4]key.Binding
	Refresh    key.Binding
	Dismiss    key.Binding

	// Mission control
	Report      key.Binding
	HealthCheck key.Binding

	// Admin list
	Up         key.Binding
	Down       key.Binding
	Search     key.Binding
	CycleRole  key.Binding
	Deactivate key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous page"),
		),
		Pages: [4]key.Binding{
			key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "Executive")),
			key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "Operations")),
			key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "Intelligence")),
			key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "Admin")),
		},
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Dismiss errors"),
		),

		Report: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "Generate report"),
		),
		HealthCheck: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Health check"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search admins"),
		),
		CycleRole: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle role filter"),
		),
		Deactivate: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Deactivate admin"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y/enter", "Confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pages[0], k.Pages[1], k.Pages[2], k.Pages[3], k.NextPage, k.PrevPage},
		{k.Refresh, k.Dismiss, k.Report, k.HealthCheck},
		{k.Up, k.Down, k.Search, k.CycleRole, k.Deactivate},
		{k.CycleTheme, k.Help, k.Quit},
	}
}

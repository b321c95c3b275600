package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"

	"github.com/five82/femg/internal/monitor"
	"github.com/five82/femg/internal/prefs"
	"github.com/five82/femg/internal/report"
	"github.com/five82/femg/internal/views"
)

const clockTick = time.Second

// Options configures the UI.
type Options struct {
	Context   context.Context
	Deps      views.Deps
	StartPage views.Page
	ReportDir string
	ThemeName string
	PrefsPath string
	Logger    logr.Logger
	// Monitor supplies the average fetch latency shown next to each view.
	// Nil hides it.
	Monitor   *monitor.Monitor
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	deps      views.Deps
	reportDir string
	prefsPath string
	log       logr.Logger
	monitor   *monitor.Monitor
	now       func() time.Time

	// Widgets
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	search  textinput.Model
	theme   Theme

	// Mounted page
	page      views.Page
	mounted   *views.Mounted
	changes   <-chan string
	stopWatch context.CancelFunc
	gen       int

	// UI state
	width      int
	height     int
	showHelp   bool
	searching  bool
	roleFilter string
	selected   int
	confirmID  string
	busy       string
	flash      string
	flashErr   bool
	clock      time.Time
}

// New creates a new Bubble Tea model. No view is mounted until Init runs.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	page := opts.StartPage
	if _, err := views.ParsePage(string(page)); err != nil {
		page = views.PageExecutive
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Default().Theme
	}
	theme := GetTheme(themeName)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "name or email"
	search.CharLimit = 64

	return Model{
		ctx:       ctx,
		deps:      opts.Deps,
		reportDir: opts.ReportDir,
		prefsPath: opts.PrefsPath,
		log:       opts.Logger.WithName("ui"),
		monitor:   opts.Monitor,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		search:    search,
		theme:     theme,
		page:      page,
		clock:     time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	page := m.page
	return tea.Batch(
		func() tea.Msg { return mountMsg{page: page} },
		m.spinner.Tick,
		tickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case mountMsg:
		cmd := m.mount(msg.page)
		return m, cmd

	case changeMsg:
		if msg.gen != m.gen {
			return m, nil // watcher of an unmounted page
		}
		m.clampSelection()
		return m, waitChange(m.gen, m.changes)

	case tickMsg:
		m.clock = time.Time(msg)
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionMsg:
		m.busy = ""
		if msg.err != nil {
			m.setFlash(msg.err.Error(), true)
		} else {
			m.setFlash(msg.text, false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderHeader() + "\n" + m.renderContent() + "\n" + m.renderFooter()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKey(msg)
	}
	if m.confirmID != "" {
		return m.handleConfirmKey(msg)
	}
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.unmount()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.NextPage):
		cmd := m.switchPage(m.pageAt(1))
		return m, cmd
	case key.Matches(msg, m.keys.PrevPage):
		cmd := m.switchPage(m.pageAt(-1))
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.refresh()
		return m, cmd
	case key.Matches(msg, m.keys.Dismiss):
		if m.mounted != nil {
			m.mounted.DismissErrors()
		}
		m.flash, m.flashErr = "", false
		return m, nil
	}

	for i, binding := range m.keys.Pages {
		if key.Matches(msg, binding) {
			cmd := m.switchPage(views.Pages()[i])
			return m, cmd
		}
	}

	if m.mounted == nil {
		return m, nil
	}
	if m.mounted.MissionControl != nil {
		switch {
		case key.Matches(msg, m.keys.Report):
			cmd := m.generateReport()
			return m, cmd
		case key.Matches(msg, m.keys.HealthCheck):
			cmd := m.healthCheck()
			return m, cmd
		}
	}
	if m.mounted.Admins != nil {
		return m.handleAdminKey(msg)
	}
	return m, nil
}

func (m Model) handleAdminKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.filteredAdmins())-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.CycleRole):
		m.roleFilter = nextRole(m.mounted.Admins.Snapshot().Data.Roles(), m.roleFilter)
		m.selected = 0
	case key.Matches(msg, m.keys.Deactivate):
		admins := m.filteredAdmins()
		if m.selected >= len(admins) {
			return m, nil
		}
		target := admins[m.selected]
		if !target.IsActive {
			m.setFlash(target.Name+" is already inactive", false)
			return m, nil
		}
		m.confirmID = target.ID
		m.setFlash(fmt.Sprintf("Deactivate %s? (y/n)", target.Name), false)
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.selected = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.selected = 0
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.confirmID
		m.confirmID = ""
		cmd := m.deactivate(id)
		return m, cmd
	case key.Matches(msg, m.keys.Cancel):
		m.confirmID = ""
		m.setFlash("Cancelled", false)
	}
	return m, nil
}

// mount replaces the current page with page and starts watching its views.
func (m *Model) mount(page views.Page) tea.Cmd {
	m.unmount()
	m.page = page
	m.selected = 0
	m.confirmID = ""

	mounted, err := views.Mount(m.ctx, page, m.deps)
	if err != nil {
		m.log.Error(err, "mount page", "page", page)
		m.setFlash(err.Error(), true)
		return nil
	}
	m.mounted = mounted
	m.gen++

	watchCtx, cancel := context.WithCancel(m.ctx)
	m.stopWatch = cancel
	m.changes = mounted.Watch(watchCtx)
	return waitChange(m.gen, m.changes)
}

func (m *Model) unmount() {
	if m.stopWatch != nil {
		m.stopWatch()
		m.stopWatch = nil
	}
	if m.mounted != nil {
		m.mounted.Unmount()
		m.mounted = nil
	}
	m.changes = nil
}

func (m *Model) switchPage(page views.Page) tea.Cmd {
	if page == m.page && m.mounted != nil {
		return nil
	}
	cmd := m.mount(page)
	m.savePrefs()
	return cmd
}

func (m Model) pageAt(offset int) views.Page {
	pages := views.Pages()
	for i, p := range pages {
		if p == m.page {
			return pages[(i+offset+len(pages))%len(pages)]
		}
	}
	return pages[0]
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, LastPage: string(m.page)}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Error(err, "save prefs")
	}
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
}

func (m *Model) clampSelection() {
	if m.mounted == nil || m.mounted.Admins == nil {
		return
	}
	if n := len(m.filteredAdmins()); m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

// Commands. Each runs the blocking call off the UI goroutine and reports back
// with an actionMsg.

func (m *Model) startAction(label string) bool {
	if m.busy != "" {
		m.setFlash("Still busy: "+m.busy, false)
		return false
	}
	m.busy = label
	return true
}

func (m *Model) refresh() tea.Cmd {
	mounted := m.mounted
	if mounted == nil || !m.startAction("refreshing") {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		if err := mounted.Refresh(ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Refreshed " + mounted.Page.Title()}
	}
}

func (m *Model) generateReport() tea.Cmd {
	mc := m.mounted.MissionControl
	if !m.startAction("generating report") {
		return nil
	}
	ctx, dir, now := m.ctx, m.reportDir, m.now
	return func() tea.Msg {
		doc, err := mc.GenerateExecutiveReport(ctx)
		if err != nil {
			return actionMsg{err: err}
		}
		path, err := report.Save(dir, doc, now())
		if err != nil {
			return actionMsg{err: fmt.Errorf("save report: %w", err)}
		}
		return actionMsg{text: "Report saved to " + path}
	}
}

func (m *Model) healthCheck() tea.Cmd {
	mc := m.mounted.MissionControl
	if !m.startAction("running health check") {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		if _, err := mc.PerformHealthCheck(ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Health check completed"}
	}
}

func (m *Model) deactivate(id string) tea.Cmd {
	if m.mounted == nil || m.mounted.Admins == nil {
		return nil
	}
	admins := m.mounted.Admins
	if !m.startAction("deactivating admin") {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		if _, err := admins.Deactivate(ctx, id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Admin deactivated"}
	}
}

// Messages

type mountMsg struct{ page views.Page }

type changeMsg struct{ gen int }

type tickMsg time.Time

type actionMsg struct {
	text string
	err  error
}

func tickCmd() tea.Cmd {
	return tea.Tick(clockTick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// waitChange blocks until a mounted view changes. It yields nothing once the
// watch channel is closed.
func waitChange(gen int, changes <-chan string) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return changeMsg{gen: gen}
	}
}

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	program := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if fm, ok := final.(Model); ok {
		fm.unmount()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

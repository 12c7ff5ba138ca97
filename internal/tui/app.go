package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studylog/internal/config"
	"studylog/internal/store"
	"studylog/internal/tracker"
)

// App is the root Bubble Tea model.
type App struct {
	store   *store.Store
	manager *tracker.Manager
	cfg     *config.Config
	width   int
	height  int

	activeView viewState
	showHelp   bool

	stopwatch stopwatchModel
	timetable timetableModel
	tags      tagsModel
	solved    solvedModel

	changes <-chan store.Change
	cancel  func()

	help        help.Model
	status      string
	statusError bool
}

func NewApp(s *store.Store, manager *tracker.Manager, history *tracker.History, solved *tracker.SolvedCounter, cfg *config.Config) App {
	h := help.New()
	h.ShowAll = false

	changes, cancel := s.Subscribe(cfg.User.ID)

	return App{
		store:      s,
		manager:    manager,
		cfg:        cfg,
		activeView: viewStopwatch,
		stopwatch:  newStopwatchModel(manager, history),
		timetable:  newTimetableModel(manager, history),
		tags:       newTagsModel(manager),
		solved:     newSolvedModel(manager, solved),
		changes:    changes,
		cancel:     cancel,
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.stopwatch.Init(),
		a.tickCmd(),
		a.waitForChange(),
	)
}

// tickCmd re-arms the clock. The stopwatch face ticks fast while a session
// is running and it is on screen; everything else gets one tick a second.
func (a App) tickCmd() tea.Cmd {
	d := time.Second
	if a.activeView == viewStopwatch && a.stopwatch.running() {
		d = time.Duration(a.cfg.UI.StopwatchTickMs) * time.Millisecond
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) waitForChange() tea.Cmd {
	ch := a.changes
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return storeChangedMsg{change: c}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4
		a.stopwatch.setSize(a.width, contentHeight)
		a.timetable.setSize(a.width, contentHeight)
		a.tags.setSize(a.width, contentHeight)
		a.solved.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.cancel()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewStopwatch
			return a, a.stopwatch.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTimetable
			return a, a.timetable.loadData()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTags
			return a, a.tags.loadData()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSolved
			return a, a.solved.loadData()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % 4
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Increment), key.Matches(msg, keys.Decrement):
			// Solved adjustments work from any view.
			var cmd tea.Cmd
			a.solved, cmd = a.solved.update(msg)
			return a, cmd
		}

	case tickMsg:
		return a, a.tickCmd()

	case storeChangedMsg:
		// Another writer touched our rows; reconcile the mirror and
		// reload whatever is on screen.
		cmds := []tea.Cmd{a.waitForChange()}
		if err := a.manager.RefreshAll(); err != nil {
			a.status = err.Error()
			a.statusError = true
		}
		if cmd := a.refreshCurrentView(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case sessionSwitchedMsg:
		a.status = "session started"
		a.statusError = false
		var cmd tea.Cmd
		a.stopwatch, cmd = a.stopwatch.update(msg)
		return a, cmd

	case sessionEndedMsg:
		if len(msg.records) == 0 {
			a.status = "session ended (under a second, nothing saved)"
		} else {
			a.status = "session ended"
		}
		a.statusError = false
		var cmd tea.Cmd
		a.stopwatch, cmd = a.stopwatch.update(msg)
		return a, cmd

	case tagSavedMsg:
		var cmd tea.Cmd
		a.tags, cmd = a.tags.update(msg)
		return a, cmd

	case solvedChangedMsg:
		var cmd tea.Cmd
		a.solved, cmd = a.solved.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewStopwatch:
		a.stopwatch, cmd = a.stopwatch.update(msg)
	case viewTimetable:
		a.timetable, cmd = a.timetable.update(msg)
	case viewTags:
		a.tags, cmd = a.tags.update(msg)
	case viewSolved:
		a.solved, cmd = a.solved.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimetable:
		return a.timetable.formActive
	case viewTags:
		return a.tags.formActive || a.tags.confirmDelete
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewStopwatch:
		return a.stopwatch.loadData()
	case viewTimetable:
		return a.timetable.loadData()
	case viewTags:
		return a.tags.loadData()
	case viewSolved:
		return a.solved.loadData()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewStopwatch:
		content = a.stopwatch.view()
	case viewTimetable:
		content = a.timetable.view()
	case viewTags:
		content = a.tags.view()
	case viewSolved:
		content = a.solved.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studylog")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	timerInfo := ""
	if a.stopwatch.running() {
		timerInfo = successStyle.Render(" ● " + formatClock(a.manager.Elapsed()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

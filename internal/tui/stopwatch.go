package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studylog/internal/store"
	"studylog/internal/tracker"
)

// stopwatchModel is the primary view: the ticking clock, the active tag,
// and the tag list with today's per-tag totals.
type stopwatchModel struct {
	manager *tracker.Manager
	history *tracker.History
	width   int
	height  int

	tags   []store.Tag
	totals map[string]int64
	active *store.ActiveSession
	cursor int
}

func newStopwatchModel(manager *tracker.Manager, history *tracker.History) stopwatchModel {
	return stopwatchModel{manager: manager, history: history}
}

func (s stopwatchModel) Init() tea.Cmd {
	return s.loadData()
}

func (s *stopwatchModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s stopwatchModel) running() bool {
	return s.active != nil
}

type stopwatchDataMsg struct {
	tags   []store.Tag
	totals map[string]int64
	active *store.ActiveSession
}

func (s stopwatchModel) loadData() tea.Cmd {
	return func() tea.Msg {
		tags, _ := s.manager.Tags()
		totals, _ := s.history.DailyTotals(time.Now())
		active, _ := s.manager.Fetch()
		return stopwatchDataMsg{tags: tags, totals: totals, active: active}
	}
}

func (s stopwatchModel) switchTo(tagID string) tea.Cmd {
	return func() tea.Msg {
		if err := s.manager.Switch(tagID); err != nil {
			return statusMsg{text: fmt.Sprintf("switch failed: %v", err), isError: true}
		}
		return sessionSwitchedMsg{tagID: tagID}
	}
}

func (s stopwatchModel) endSession() tea.Cmd {
	return func() tea.Msg {
		records, err := s.manager.End()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("end failed: %v", err), isError: true}
		}
		return sessionEndedMsg{records: records}
	}
}

func (s stopwatchModel) update(msg tea.Msg) (stopwatchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case stopwatchDataMsg:
		s.tags = msg.tags
		s.totals = msg.totals
		s.active = msg.active
		if s.cursor >= len(s.tags) {
			s.cursor = max(0, len(s.tags)-1)
		}
		return s, nil

	case sessionSwitchedMsg, sessionEndedMsg:
		return s, s.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if s.cursor > 0 {
				s.cursor--
			}
		case key.Matches(msg, keys.Down):
			if s.cursor < len(s.tags)-1 {
				s.cursor++
			}
		case key.Matches(msg, keys.Switch):
			if len(s.tags) > 0 {
				return s, s.switchTo(s.tags[s.cursor].ID)
			}
		case key.Matches(msg, keys.End):
			if s.running() {
				return s, s.endSession()
			}
		}
	}
	return s, nil
}

func (s stopwatchModel) view() string {
	w := s.width - 4

	face := s.renderFace(w)
	list := s.renderTagList(w)

	hints := mutedStyle.Render("  enter: start/switch  x: end  n: new tag (tags view)")

	return lipgloss.JoinVertical(lipgloss.Left, face, list, hints)
}

func (s stopwatchModel) renderFace(w int) string {
	clock := formatClock(s.manager.Elapsed())

	var face, label string
	if s.running() {
		face = timerRunningStyle.Width(w - 6).Render(clock)
		name, color, icon := s.activeTagDisplay()
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(iconGlyph(icon))
		label = lipgloss.NewStyle().Width(w - 6).Align(lipgloss.Center).
			Render(fmt.Sprintf("%s %s", dot, name))
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, face, label))
	}

	face = timerIdleStyle.Width(w - 6).Render(clock)
	label = mutedStyle.Width(w - 6).Align(lipgloss.Center).Render("idle · pick a tag to start")
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, face, label))
}

// activeTagDisplay prefers the mirror's denormalized attributes so the face
// renders without another store round trip.
func (s stopwatchModel) activeTagDisplay() (name, color, icon string) {
	if m, err := s.manager.Mirror().Load(); err == nil && m != nil {
		return m.Name, m.Color, m.Icon
	}
	for _, t := range s.tags {
		if s.active != nil && t.ID == s.active.TagID {
			return t.Name, t.Color, t.Icon
		}
	}
	return "unknown", "#22D3EE", "moon"
}

func (s stopwatchModel) renderTagList(w int) string {
	if len(s.tags) == 0 {
		return panelStyle.Width(w).Render(mutedStyle.Render("No tags yet. Press 3 and n to create one."))
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Today"))
	rows = append(rows, "")

	for i, t := range s.tags {
		total := s.totals[t.ID]
		marker := "  "
		style := normalItemStyle
		if i == s.cursor {
			marker = "> "
			style = selectedItemStyle
		}

		live := ""
		if s.active != nil && s.active.TagID == t.ID {
			// The list shows committed total + live elapsed for the
			// running tag; Elapsed already includes the accumulated part.
			total = s.manager.Elapsed()
			live = successStyle.Render(" ●")
		}

		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render(iconGlyph(t.Icon))
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %-24s %10s", marker, dot, t.Name, formatClock(total)))+live)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studylog/internal/store"
	"studylog/internal/tracker"
)

const solvedHistoryDays = 7

// solvedModel tracks problems solved per day. + and - adjust the count for
// the tag currently being studied, or the untagged bucket when idle.
type solvedModel struct {
	manager *tracker.Manager
	solved  *tracker.SolvedCounter
	width   int
	height  int

	counts  map[string]int
	logs    []store.SolvedLog
	history []store.SolvedDay
	tags    map[string]store.Tag
	chart   barchart.Model
}

func newSolvedModel(manager *tracker.Manager, solved *tracker.SolvedCounter) solvedModel {
	return solvedModel{
		manager: manager,
		solved:  solved,
		chart:   barchart.New(40, 8),
	}
}

func (s solvedModel) Init() tea.Cmd {
	return s.loadData()
}

func (s *solvedModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.buildChart()
}

type solvedDataMsg struct {
	counts  map[string]int
	logs    []store.SolvedLog
	history []store.SolvedDay
	tags    map[string]store.Tag
}

func (s solvedModel) loadData() tea.Cmd {
	return func() tea.Msg {
		today := time.Now()
		counts, err := s.solved.Counts(today)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("load solved: %v", err), isError: true}
		}
		logs, _ := s.solved.Logs(today)
		history, _ := s.solved.History(solvedHistoryDays)

		tags := make(map[string]store.Tag)
		if list, err := s.manager.Tags(); err == nil {
			for _, t := range list {
				tags[t.ID] = t
			}
		}
		return solvedDataMsg{counts: counts, logs: logs, history: history, tags: tags}
	}
}

// currentTag resolves the tag a +/- keypress applies to. The running
// session wins; idle adjustments land in the untagged bucket.
func (s solvedModel) currentTag() string {
	if m, err := s.manager.Mirror().Load(); err == nil && m != nil {
		return m.TagID
	}
	return tracker.NoTag
}

func (s solvedModel) update(msg tea.Msg) (solvedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case solvedDataMsg:
		s.counts = msg.counts
		s.logs = msg.logs
		s.history = msg.history
		s.tags = msg.tags
		s.buildChart()
		return s, nil

	case solvedChangedMsg:
		return s, s.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Increment):
			tagID := s.currentTag()
			return s, func() tea.Msg {
				n, err := s.solved.Increment(tagID)
				if err != nil {
					return statusMsg{text: fmt.Sprintf("solved +1: %v", err), isError: true}
				}
				return solvedChangedMsg{count: n}
			}
		case key.Matches(msg, keys.Decrement):
			tagID := s.currentTag()
			return s, func() tea.Msg {
				n, err := s.solved.Decrement(tagID)
				if err != nil {
					return statusMsg{text: fmt.Sprintf("solved -1: %v", err), isError: true}
				}
				return solvedChangedMsg{count: n}
			}
		}
	}
	return s, nil
}

func (s *solvedModel) buildChart() {
	chartWidth := s.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	s.chart = barchart.New(chartWidth, 8)

	byDate := make(map[string]int, len(s.history))
	for _, d := range s.history {
		byDate[d.Date] = d.Count
	}

	var bars []barchart.BarData
	for i := solvedHistoryDays - 1; i >= 0; i-- {
		day := time.Now().AddDate(0, 0, -i)
		count := byDate[tracker.DateKey(day)]

		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if count == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: day.Format("Mon"),
			Values: []barchart.BarValue{
				{Name: "solved", Value: float64(count), Style: style},
			},
		})
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s solvedModel) tagLabel(tagID string) string {
	if tagID == tracker.NoTag {
		return "untagged"
	}
	if t, ok := s.tags[tagID]; ok {
		return t.Name
	}
	return "deleted tag"
}

func (s solvedModel) view() string {
	w := s.width - 4

	total := 0
	for _, n := range s.counts {
		total += n
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Solved Today")+
		successStyle.Render(fmt.Sprintf("  %d", total)))
	rows = append(rows, "")

	if len(s.counts) == 0 {
		rows = append(rows, mutedStyle.Render("Nothing yet. Press + while studying."))
	}
	for tagID, n := range s.counts {
		if n == 0 {
			continue
		}
		rows = append(rows, normalItemStyle.Render(fmt.Sprintf("  %-24s %3d", s.tagLabel(tagID), n)))
	}

	rows = append(rows, "", titleStyle.Render(fmt.Sprintf("Last %d Days", solvedHistoryDays)), "")
	rows = append(rows, s.chart.View())

	if len(s.logs) > 0 {
		rows = append(rows, "", titleStyle.Render("Log"), "")
		shown := s.logs
		if len(shown) > 5 {
			shown = shown[len(shown)-5:]
		}
		for _, l := range shown {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %s  %s",
				l.CreatedAt.Format("15:04"), s.tagLabel(l.TagID))))
		}
	}

	rows = append(rows, "", mutedStyle.Render("  +: solved  -: undo"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

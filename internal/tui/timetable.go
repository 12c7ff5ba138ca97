package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"studylog/internal/store"
	"studylog/internal/tracker"
)

// timetableModel shows one day as 24 hour rows, each tiled with session
// and gap segments, plus a form for booking a past gap to a tag.
type timetableModel struct {
	manager *tracker.Manager
	history *tracker.History
	width   int
	height  int

	date    time.Time
	buckets []tracker.HourBucket
	total   int64
	tags    map[string]store.Tag
	cursor  int

	formActive bool
	form       *huh.Form
	fillTag    string
	fillGap    string
	gapStarts  map[string]tracker.HourSegment
}

func newTimetableModel(manager *tracker.Manager, history *tracker.History) timetableModel {
	return timetableModel{
		manager: manager,
		history: history,
		date:    time.Now(),
		cursor:  time.Now().Hour(),
	}
}

func (t timetableModel) Init() tea.Cmd {
	return t.loadData()
}

func (t *timetableModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type timetableDataMsg struct {
	date    time.Time
	buckets []tracker.HourBucket
	total   int64
	tags    map[string]store.Tag
}

func (t timetableModel) loadData() tea.Cmd {
	date := t.date
	return func() tea.Msg {
		records, err := t.history.Day(date)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("load day: %v", err), isError: true}
		}

		var live *tracker.Interval
		if sameCalendarDay(date, time.Now()) {
			if sess, err := t.manager.Fetch(); err == nil && sess != nil {
				live = &tracker.Interval{
					TagID:   sess.TagID,
					StartMs: sess.StartTime.UnixMilli(),
					EndMs:   time.Now().UnixMilli(),
				}
			}
		}

		buckets, total := tracker.Distribution(date, records, live)

		tags := make(map[string]store.Tag)
		if list, err := t.manager.Tags(); err == nil {
			for _, tg := range list {
				tags[tg.ID] = tg
			}
		}
		return timetableDataMsg{date: date, buckets: buckets, total: total, tags: tags}
	}
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (t timetableModel) update(msg tea.Msg) (timetableModel, tea.Cmd) {
	if t.formActive {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case timetableDataMsg:
		t.buckets = msg.buckets
		t.total = msg.total
		t.tags = msg.tags
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < 23 {
				t.cursor++
			}
		case key.Matches(msg, keys.Left):
			t.date = t.date.AddDate(0, 0, -1)
			return t, t.loadData()
		case key.Matches(msg, keys.Right):
			if !sameCalendarDay(t.date, time.Now()) {
				t.date = t.date.AddDate(0, 0, 1)
				return t, t.loadData()
			}
		case key.Matches(msg, keys.Fill):
			return t.openFillForm()
		}
	}
	return t, nil
}

// openFillForm offers the gaps of the hour under the cursor. Booking a gap
// writes it through the manager so the normal floor and validation apply.
func (t timetableModel) openFillForm() (timetableModel, tea.Cmd) {
	if t.cursor >= len(t.buckets) {
		return t, nil
	}
	gaps := t.buckets[t.cursor].Gaps()
	if len(gaps) == 0 {
		return t, func() tea.Msg {
			return statusMsg{text: "no gap in that hour", isError: false}
		}
	}

	t.gapStarts = make(map[string]tracker.HourSegment)
	gapOpts := make([]huh.Option[string], 0, len(gaps))
	for _, g := range gaps {
		label := fmt.Sprintf("%s + %s", formatWallClock(g.StartMs), formatShort(g.DurationMs))
		t.gapStarts[label] = g
		gapOpts = append(gapOpts, huh.NewOption(label, label))
	}

	var tagOpts []huh.Option[string]
	for _, tg := range t.tags {
		tagOpts = append(tagOpts, huh.NewOption(tg.Name, tg.ID))
	}
	if len(tagOpts) == 0 {
		return t, func() tea.Msg {
			return statusMsg{text: "create a tag first", isError: true}
		}
	}

	t.fillTag = ""
	t.fillGap = ""
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Gap").
				Options(gapOpts...).
				Value(&t.fillGap),
			huh.NewSelect[string]().
				Title("Tag").
				Options(tagOpts...).
				Value(&t.fillTag),
		),
	)
	t.formActive = true
	return t, t.form.Init()
}

func (t timetableModel) updateForm(msg tea.Msg) (timetableModel, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok && key.Matches(kmsg, keys.Back) {
		t.formActive = false
		t.form = nil
		return t, nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		gap, ok := t.gapStarts[t.fillGap]
		t.form = nil
		if !ok {
			return t, nil
		}
		tagID := t.fillTag
		return t, func() tea.Msg {
			err := t.manager.FillGap(tagID, time.UnixMilli(gap.StartMs), gap.DurationMs)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("fill gap: %v", err), isError: true}
			}
			return statusMsg{text: "gap filled", isError: false}
		}
	}
	return t, cmd
}

func (t timetableModel) view() string {
	if t.formActive && t.form != nil {
		return panelStyle.Width(t.width - 4).Render(t.form.View())
	}

	w := t.width - 4

	header := titleStyle.Render(t.date.Format("Mon 2 Jan 2006")) +
		mutedStyle.Render(fmt.Sprintf("   total %s", formatClock(t.total)))

	barWidth := w - 12
	if barWidth < 10 {
		barWidth = 10
	}

	var rows []string
	rows = append(rows, header, "")
	for _, b := range t.buckets {
		marker := "  "
		label := mutedStyle.Render(fmt.Sprintf("%02d:00", b.Hour))
		if b.Hour == t.cursor {
			marker = highlightStyle.Render("> ")
			label = highlightStyle.Render(fmt.Sprintf("%02d:00", b.Hour))
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", marker, label, t.renderHourBar(b, barWidth)))
	}
	rows = append(rows, "", mutedStyle.Render("  ←/→: day  f: fill gap"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// renderHourBar tiles one hour into a fixed-width bar. Cell counts are
// rounded per segment, so a bar can be off by a cell at worst.
func (t timetableModel) renderHourBar(b tracker.HourBucket, width int) string {
	const hourMs = 3_600_000

	var sb strings.Builder
	used := 0
	for _, seg := range b.Segments {
		cells := int(seg.DurationMs * int64(width) / hourMs)
		if seg.Kind == tracker.SegmentSession && seg.DurationMs > 0 && cells == 0 {
			cells = 1
		}
		if used+cells > width {
			cells = width - used
		}
		if cells <= 0 {
			continue
		}

		if seg.Kind == tracker.SegmentSession {
			color := colorPrimary
			if tg, ok := t.tags[seg.TagID]; ok {
				color = lipgloss.Color(tg.Color)
			}
			sb.WriteString(lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", cells)))
		} else {
			sb.WriteString(mutedStyle.Render(strings.Repeat("░", cells)))
		}
		used += cells
	}
	if used < width {
		sb.WriteString(mutedStyle.Render(strings.Repeat("░", width-used)))
	}
	return sb.String()
}

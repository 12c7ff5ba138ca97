package tui

import (
	"fmt"
	"time"

	"studylog/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewStopwatch viewState = iota
	viewTimetable
	viewTags
	viewSolved
)

var viewNames = []string{"Stopwatch", "Timetable", "Tags", "Solved"}

// Tag appearance. Icons are a closed identifier set resolved through this
// table at the presentation boundary; unknown ids fall back to the default.
var tagColors = []string{"#22D3EE", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

var tagIcons = []string{"moon", "cpu", "book", "code", "flask", "globe", "music", "pencil", "star", "coffee"}

var iconGlyphs = map[string]string{
	"moon":   "☾",
	"cpu":    "▣",
	"book":   "✎",
	"code":   "⌨",
	"flask":  "⚗",
	"globe":  "◍",
	"music":  "♪",
	"pencil": "✏",
	"star":   "★",
	"coffee": "☕",
}

func iconGlyph(icon string) string {
	if g, ok := iconGlyphs[icon]; ok {
		return g
	}
	return iconGlyphs["moon"]
}

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

type storeChangedMsg struct {
	change store.Change
}

type sessionSwitchedMsg struct {
	tagID string
}

type sessionEndedMsg struct {
	records []store.Record
}

type tagSavedMsg struct{}

type solvedChangedMsg struct {
	count int
}

// --- Helpers ---

// formatClock renders milliseconds as HH:MM:SS.
func formatClock(ms int64) string {
	secs := ms / 1000
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatShort renders milliseconds compactly: "42m", "1h05m", "37s".
func formatShort(ms int64) string {
	secs := ms / 1000
	switch {
	case secs >= 3600:
		return fmt.Sprintf("%dh%02dm", secs/3600, (secs%3600)/60)
	case secs >= 60:
		return fmt.Sprintf("%dm", secs/60)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// formatWallClock renders a unix-millisecond instant as local HH:MM.
func formatWallClock(ms int64) string {
	return time.UnixMilli(ms).Format("15:04")
}

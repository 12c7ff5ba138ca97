package tracker

import "time"

// MinRecordMs is the minimum-duration floor for committed records. Anything
// shorter is noise from an accidental tap and is dropped.
const MinRecordMs = 1000

const fullDayMs = 24 * 60 * 60 * 1000

// RecordDraft is a day-bounded piece of a closed interval, ready to be
// committed. CreatedAt is the start instant of the piece.
type RecordDraft struct {
	TagID     string
	Duration  int64 // milliseconds
	CreatedAt time.Time
}

// Segment splits the closed interval [start, end) into day-bounded drafts,
// cutting at local midnight so every draft's span lies within a single
// calendar day. Drafts shorter than MinRecordMs are dropped.
func Segment(start, end time.Time, tagID string) []RecordDraft {
	var drafts []RecordDraft

	if sameDay(start, end) {
		d := end.Sub(start).Milliseconds()
		if d >= MinRecordMs {
			drafts = append(drafts, RecordDraft{TagID: tagID, Duration: d, CreatedAt: start})
		}
		return drafts
	}

	// Tail of the first day, up to 23:59:59.999 local.
	endOfFirst := startOfDay(start).AddDate(0, 0, 1).Add(-time.Millisecond)
	if d := endOfFirst.Sub(start).Milliseconds(); d >= MinRecordMs {
		drafts = append(drafts, RecordDraft{TagID: tagID, Duration: d, CreatedAt: start})
	}

	// One full-day draft per whole intermediate day, anchored at its midnight.
	for day := startOfDay(start).AddDate(0, 0, 1); !sameDay(day, end); day = day.AddDate(0, 0, 1) {
		drafts = append(drafts, RecordDraft{TagID: tagID, Duration: fullDayMs, CreatedAt: day})
	}

	// Head of the last day, from 00:00:00.000 local.
	if d := end.Sub(startOfDay(end)).Milliseconds(); d >= MinRecordMs {
		drafts = append(drafts, RecordDraft{TagID: tagID, Duration: d, CreatedAt: startOfDay(end)})
	}

	return drafts
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateKey formats a local calendar date as YYYY-MM-DD, the key used by the
// solved-problem tables.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

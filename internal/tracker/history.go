package tracker

import (
	"time"

	"studylog/internal/store"
)

// History is the read model over committed records. It knows nothing about
// the live clock; callers viewing "today" add the running session's elapsed
// time themselves.
type History struct {
	sessions SessionStore
	userID   string
}

func NewHistory(sessions SessionStore, userID string) *History {
	return &History{sessions: sessions, userID: userID}
}

// Day returns the date's committed records, ordered by start ascending.
func (h *History) Day(date time.Time) ([]store.Record, error) {
	recs, err := h.sessions.QueryRecords(h.userID, startOfDay(date), endOfDay(date))
	return recs, storeErr("fetch day", err)
}

// DailyTotals sums committed durations per tag for the date.
func (h *History) DailyTotals(date time.Time) (map[string]int64, error) {
	recs, err := h.Day(date)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, r := range recs {
		totals[r.TagID] += r.Duration
	}
	return totals, nil
}

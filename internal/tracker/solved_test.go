package tracker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studylog/internal/store"
)

func newTestCounter(t *testing.T) (*SolvedCounter, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewSolvedCounter(s, testUser, zerolog.Nop()), s
}

func TestIncrementReturnsRunningCount(t *testing.T) {
	c, s := newTestCounter(t)
	fixed := at(2026, 3, 1, 9, 0, 0, 0)
	c.SetClock(func() time.Time { return fixed })
	s.SetClock(func() time.Time { return fixed })

	for want := 1; want <= 3; want++ {
		n, err := c.Increment(NoTag)
		if err != nil {
			t.Fatal(err)
		}
		if n != want {
			t.Errorf("count = %d, want %d", n, want)
		}
	}

	logs, err := c.Logs(fixed)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 {
		t.Errorf("got %d log entries", len(logs))
	}
}

func TestDecrementFlooredAtZero(t *testing.T) {
	c, s := newTestCounter(t)
	fixed := at(2026, 3, 1, 9, 0, 0, 0)
	c.SetClock(func() time.Time { return fixed })
	s.SetClock(func() time.Time { return fixed })

	// Decrement with nothing recorded is a no-op, not -1.
	n, err := c.Decrement(NoTag)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d", n)
	}

	c.Increment(NoTag)
	if n, _ = c.Decrement(NoTag); n != 0 {
		t.Errorf("count after undo = %d", n)
	}
	logs, _ := c.Logs(fixed)
	if len(logs) != 0 {
		t.Errorf("log entry survived undo: %+v", logs)
	}
}

func TestCountsSeparateTags(t *testing.T) {
	c, s := newTestCounter(t)
	fixed := at(2026, 3, 1, 9, 0, 0, 0)
	c.SetClock(func() time.Time { return fixed })
	s.SetClock(func() time.Time { return fixed })

	c.Increment("tag-a")
	c.Increment("tag-a")
	c.Increment(NoTag)

	counts, err := c.Counts(fixed)
	if err != nil {
		t.Fatal(err)
	}
	if counts["tag-a"] != 2 {
		t.Errorf("tag-a = %d", counts["tag-a"])
	}
	if counts[NoTag] != 1 {
		t.Errorf("untagged = %d", counts[NoTag])
	}
}

func TestHistoryWindowIncludesToday(t *testing.T) {
	c, s := newTestCounter(t)
	today := at(2026, 3, 7, 12, 0, 0, 0)
	c.SetClock(func() time.Time { return today })

	s.UpsertSolvedCount(testUser, "2026-03-01", NoTag, 9) // just outside the window
	s.UpsertSolvedCount(testUser, "2026-03-02", NoTag, 2)
	s.UpsertSolvedCount(testUser, "2026-03-07", NoTag, 4)

	hist, err := c.History(6)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 {
		t.Fatalf("got %d days: %+v", len(hist), hist)
	}
	if hist[0].Date != "2026-03-02" || hist[1].Date != "2026-03-07" {
		t.Errorf("history = %+v", hist)
	}
}

// ============================================================
// History read model
// ============================================================

func TestHistoryDayBounds(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")
	h := NewHistory(s, testUser)

	day := at(2026, 3, 1, 0, 0, 0, 0)
	mk := func(start time.Time) store.Record {
		return store.Record{
			ID: "r-" + start.Format("20060102-150405.000"), UserID: testUser,
			TagID: a.ID, Duration: 60_000, CreatedAt: start,
		}
	}
	err := s.InsertRecords([]store.Record{
		mk(day.Add(-time.Minute)),   // previous day
		mk(day),                     // midnight
		mk(day.Add(13 * time.Hour)), // afternoon
		mk(day.AddDate(0, 0, 1)),    // next day
	})
	if err != nil {
		t.Fatal(err)
	}

	recs, err := h.Day(day.Add(10 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	totals, err := h.DailyTotals(day)
	if err != nil {
		t.Fatal(err)
	}
	if totals[a.ID] != 120_000 {
		t.Errorf("total = %d", totals[a.ID])
	}
}

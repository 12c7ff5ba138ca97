package tracker

import (
	"time"

	"github.com/rs/zerolog"

	"studylog/internal/store"
)

// NoTag is the counter key for solved problems logged without a tag.
const NoTag = ""

// SolvedStore is the persistence contract for solved-problem counters.
type SolvedStore interface {
	UpsertSolvedCount(userID, date, tagID string, count int) error
	GetSolvedCounts(userID, date string) (map[string]int, error)
	InsertSolvedLog(userID, tagID string) error
	DeleteLatestSolvedLog(userID, tagID string, dayStart, dayEnd time.Time) error
	GetSolvedLogs(userID string, dayStart, dayEnd time.Time) ([]store.SolvedLog, error)
	SolvedHistory(userID, sinceDate string) ([]store.SolvedDay, error)
}

// SolvedCounter tracks per-tag daily solved-problem counts and their
// append-only increment log.
type SolvedCounter struct {
	solved SolvedStore
	userID string
	logger zerolog.Logger
	now    func() time.Time
}

func NewSolvedCounter(solved SolvedStore, userID string, logger zerolog.Logger) *SolvedCounter {
	return &SolvedCounter{
		solved: solved,
		userID: userID,
		logger: logger.With().Str("component", "solved-counter").Logger(),
		now:    time.Now,
	}
}

// SetClock overrides the counter's time source, for tests.
func (c *SolvedCounter) SetClock(fn func() time.Time) {
	c.now = fn
}

// Increment bumps today's count for the tag and appends a log entry.
// Returns the new count.
func (c *SolvedCounter) Increment(tagID string) (int, error) {
	date := DateKey(c.now())
	counts, err := c.solved.GetSolvedCounts(c.userID, date)
	if err != nil {
		return 0, storeErr("increment solved", err)
	}

	n := counts[tagID] + 1
	if err := c.solved.UpsertSolvedCount(c.userID, date, tagID, n); err != nil {
		return 0, storeErr("increment solved", err)
	}
	if err := c.solved.InsertSolvedLog(c.userID, tagID); err != nil {
		return 0, storeErr("increment solved", err)
	}
	return n, nil
}

// Decrement lowers today's count for the tag, floored at zero, and removes
// the latest matching log entry.
func (c *SolvedCounter) Decrement(tagID string) (int, error) {
	now := c.now()
	date := DateKey(now)
	counts, err := c.solved.GetSolvedCounts(c.userID, date)
	if err != nil {
		return 0, storeErr("decrement solved", err)
	}

	cur := counts[tagID]
	if cur <= 0 {
		return 0, nil
	}
	n := cur - 1
	if err := c.solved.UpsertSolvedCount(c.userID, date, tagID, n); err != nil {
		return 0, storeErr("decrement solved", err)
	}
	if err := c.solved.DeleteLatestSolvedLog(c.userID, tagID, startOfDay(now), endOfDay(now)); err != nil {
		return 0, storeErr("decrement solved", err)
	}
	return n, nil
}

// Counts returns the date's per-tag counts.
func (c *SolvedCounter) Counts(date time.Time) (map[string]int, error) {
	counts, err := c.solved.GetSolvedCounts(c.userID, DateKey(date))
	return counts, storeErr("solved counts", err)
}

// Logs returns the date's increment log, oldest first.
func (c *SolvedCounter) Logs(date time.Time) ([]store.SolvedLog, error) {
	logs, err := c.solved.GetSolvedLogs(c.userID, startOfDay(date), endOfDay(date))
	return logs, storeErr("solved logs", err)
}

// History returns per-day totals covering the last n days including today.
func (c *SolvedCounter) History(days int) ([]store.SolvedDay, error) {
	since := DateKey(c.now().AddDate(0, 0, -(days - 1)))
	hist, err := c.solved.SolvedHistory(c.userID, since)
	return hist, storeErr("solved history", err)
}

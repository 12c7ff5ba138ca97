package store

import "time"

type Tag struct {
	ID        string
	UserID    string
	Name      string
	Color     string
	Icon      string
	CreatedAt time.Time
}

// ActiveSession is the single in-progress timed interval for a user. It is
// replaced (delete + insert), never updated in place.
type ActiveSession struct {
	ID        string
	UserID    string
	TagID     string
	StartTime time.Time
}

// Record is a committed study session. Immutable once written; CreatedAt is
// the start instant of the interval and the span never crosses local
// midnight.
type Record struct {
	ID        string
	UserID    string
	TagID     string
	Duration  int64 // milliseconds, > 0
	CreatedAt time.Time
}

// TagPatch carries partial tag updates; nil fields are left unchanged.
type TagPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// SolvedLog is one solved-problem increment, kept for the daily log list.
type SolvedLog struct {
	ID        string
	UserID    string
	TagID     string // empty = untagged
	CreatedAt time.Time
}

// SolvedDay is a per-date aggregate of solved-problem counts.
type SolvedDay struct {
	Date  string // YYYY-MM-DD
	Count int
}

package tracker

import "time"

// Elapsed computes the ticking display value for a running session: the
// accumulated committed time plus the live portion since the session start.
// A session that silently ran past midnight only credits today: the
// effective start is clamped to the start of the current day. Display only;
// committing an interval goes through End, never through this value.
func Elapsed(start time.Time, accumulatedMs int64, now time.Time) int64 {
	effective := start
	if !sameDay(start, now) {
		effective = startOfDay(now)
	}
	return accumulatedMs + now.Sub(effective).Milliseconds()
}

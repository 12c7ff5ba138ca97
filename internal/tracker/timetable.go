package tracker

import (
	"sort"
	"time"

	"studylog/internal/store"
)

const hourMs = 3600 * 1000

type SegmentKind string

const (
	SegmentSession SegmentKind = "session"
	SegmentGap     SegmentKind = "gap"
)

// HourSegment is a sub-interval of one hour, either covered by a session or
// empty. Gap segments carry their start and duration so the UI can offer to
// fill them with a new record.
type HourSegment struct {
	Kind       SegmentKind
	StartMs    int64 // unix milliseconds
	DurationMs int64
	TagID      string // session segments only
}

// HourBucket is one hour of the daily timetable. Derived, never persisted;
// recomputed on every read.
type HourBucket struct {
	Hour     int
	TotalMs  int64
	Segments []HourSegment
}

// Interval is a raw (start, end, tag) span fed to the distribution sweep,
// typically the live session with End = now.
type Interval struct {
	TagID   string
	StartMs int64
	EndMs   int64
}

// Distribution reduces a day's committed records plus an optional live
// interval into 24 hour buckets of non-overlapping session and gap segments.
// The sweep's monotonic cursor collapses overlapping intervals, so two
// records covering the same wall-clock span never double count. Returns the
// buckets and the day total in milliseconds.
func Distribution(day time.Time, records []store.Record, live *Interval) ([]HourBucket, int64) {
	dayStartMs := startOfDay(day).UnixMilli()

	intervals := make([]Interval, 0, len(records)+1)
	for _, r := range records {
		start := r.CreatedAt.UnixMilli()
		intervals = append(intervals, Interval{TagID: r.TagID, StartMs: start, EndMs: start + r.Duration})
	}
	if live != nil {
		intervals = append(intervals, *live)
	}

	buckets := make([]HourBucket, 24)
	var dayTotal int64

	for h := 0; h < 24; h++ {
		hStart := dayStartMs + int64(h)*hourMs
		hEnd := hStart + hourMs

		// Clip every overlapping interval to the hour window.
		var clipped []Interval
		for _, iv := range intervals {
			start := max64(iv.StartMs, hStart)
			end := min64(iv.EndMs, hEnd)
			if start < end {
				clipped = append(clipped, Interval{TagID: iv.TagID, StartMs: start, EndMs: end})
			}
		}
		sort.Slice(clipped, func(i, j int) bool { return clipped[i].StartMs < clipped[j].StartMs })

		// Sweep left to right; the cursor only moves forward, so a later
		// interval wholly inside an earlier one contributes nothing.
		var segments []HourSegment
		cursor := hStart
		for _, iv := range clipped {
			if iv.StartMs > cursor {
				segments = append(segments, HourSegment{Kind: SegmentGap, StartMs: cursor, DurationMs: iv.StartMs - cursor})
				cursor = iv.StartMs
			}
			if iv.EndMs > cursor {
				segments = append(segments, HourSegment{Kind: SegmentSession, StartMs: cursor, DurationMs: iv.EndMs - cursor, TagID: iv.TagID})
				cursor = iv.EndMs
			}
		}
		if cursor < hEnd {
			segments = append(segments, HourSegment{Kind: SegmentGap, StartMs: cursor, DurationMs: hEnd - cursor})
		}

		var total int64
		for _, seg := range segments {
			if seg.Kind == SegmentSession {
				total += seg.DurationMs
			}
		}
		dayTotal += total

		buckets[h] = HourBucket{Hour: h, TotalMs: total, Segments: segments}
	}

	return buckets, dayTotal
}

// Gaps returns the bucket's gap segments, the candidates for gap filling.
func (b HourBucket) Gaps() []HourSegment {
	var gaps []HourSegment
	for _, seg := range b.Segments {
		if seg.Kind == SegmentGap {
			gaps = append(gaps, seg)
		}
	}
	return gaps
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

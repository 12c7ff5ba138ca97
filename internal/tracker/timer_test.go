package tracker

import (
	"testing"
	"time"
)

func TestElapsedSameDay(t *testing.T) {
	start := at(2026, 3, 1, 10, 0, 0, 0)
	now := at(2026, 3, 1, 10, 5, 30, 0)

	if got := Elapsed(start, 0, now); got != (5*60+30)*1000 {
		t.Errorf("elapsed = %d", got)
	}
}

func TestElapsedAddsAccumulated(t *testing.T) {
	start := at(2026, 3, 1, 10, 0, 0, 0)
	now := start.Add(5 * time.Second)

	if got := Elapsed(start, 600_000, now); got != 605_000 {
		t.Errorf("elapsed = %d", got)
	}
}

// A session left running across midnight only credits today on the display.
func TestElapsedClampsToMidnight(t *testing.T) {
	start := at(2026, 2, 28, 23, 50, 0, 0)
	now := at(2026, 3, 1, 0, 10, 0, 0)

	if got := Elapsed(start, 0, now); got != 10*60*1000 {
		t.Errorf("elapsed = %d, want 10 minutes", got)
	}
}

func TestElapsedZeroAtStart(t *testing.T) {
	start := at(2026, 3, 1, 10, 0, 0, 0)
	if got := Elapsed(start, 0, start); got != 0 {
		t.Errorf("elapsed = %d", got)
	}
}

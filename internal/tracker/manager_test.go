package tracker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studylog/internal/store"
)

const testUser = "user-1"

func newTestManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	mirror := NewMirrorSlot(s, zerolog.Nop())
	m := NewManager(testUser, s, s, mirror, zerolog.Nop())
	return m, s
}

func setClocks(m *Manager, s *store.Store, fn func() time.Time) {
	m.SetClock(fn)
	s.SetClock(fn)
}

func mustAddTag(t *testing.T, m *Manager, name string) *store.Tag {
	t.Helper()
	tag, err := m.AddTag(name)
	if err != nil {
		t.Fatalf("add tag %q: %v", name, err)
	}
	return tag
}

// ============================================================
// Start
// ============================================================

func TestStartPopulatesMirror(t *testing.T) {
	m, s := newTestManager(t)
	tag := mustAddTag(t, m, "reading")

	fixed := at(2026, 3, 1, 9, 0, 0, 0)
	setClocks(m, s, func() time.Time { return fixed })

	sess, err := m.Start(tag.ID)
	if err != nil {
		t.Fatal(err)
	}

	mirror, err := m.Mirror().Load()
	if err != nil {
		t.Fatal(err)
	}
	if mirror == nil {
		t.Fatal("mirror empty after start")
	}
	if mirror.TagID != tag.ID || mirror.SessionID != sess.ID {
		t.Errorf("mirror = %+v", mirror)
	}
	if mirror.Name != "reading" {
		t.Errorf("mirror name = %q", mirror.Name)
	}
	if mirror.StartMs != fixed.UnixMilli() {
		t.Errorf("mirror start = %d", mirror.StartMs)
	}
	if mirror.AccumulatedMs != 0 {
		t.Errorf("mirror accumulated = %d", mirror.AccumulatedMs)
	}
}

func TestStartConflict(t *testing.T) {
	m, _ := newTestManager(t)
	a := mustAddTag(t, m, "a")
	b := mustAddTag(t, m, "b")

	if _, err := m.Start(a.ID); err != nil {
		t.Fatal(err)
	}

	_, err := m.Start(b.ID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.ActiveTagID != a.ID {
		t.Errorf("conflicting tag = %q", conflict.ActiveTagID)
	}
}

// ============================================================
// Switch
// ============================================================

func TestSwitchCommitsPreviousSession(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")
	b := mustAddTag(t, m, "b")

	start := at(2026, 3, 1, 9, 0, 0, 0)
	clock := start
	setClocks(m, s, func() time.Time { return clock })

	if _, err := m.Start(a.ID); err != nil {
		t.Fatal(err)
	}

	clock = start.Add(90 * time.Second)
	if err := m.Switch(b.ID); err != nil {
		t.Fatal(err)
	}

	recs, err := s.QueryRecords(testUser, start.Add(-time.Hour), clock)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].TagID != a.ID || recs[0].Duration != 90_000 {
		t.Errorf("record = %+v", recs[0])
	}

	active, err := s.GetActive(testUser)
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.TagID != b.ID {
		t.Fatalf("active = %+v", active)
	}
}

func TestSwitchSameTagKeepsSession(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")

	start := at(2026, 3, 1, 9, 0, 0, 0)
	clock := start
	setClocks(m, s, func() time.Time { return clock })

	sess, err := m.Start(a.ID)
	if err != nil {
		t.Fatal(err)
	}

	clock = start.Add(time.Hour)
	if err := m.Switch(a.ID); err != nil {
		t.Fatal(err)
	}

	active, err := s.GetActive(testUser)
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != sess.ID {
		t.Fatalf("session replaced: %+v", active)
	}

	recs, err := s.QueryRecords(testUser, start.Add(-time.Hour), clock)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("unexpected records: %+v", recs)
	}
}

// ============================================================
// End
// ============================================================

func TestEndUnderFloorSavesNothing(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")

	start := at(2026, 3, 1, 9, 0, 0, 0)
	clock := start
	setClocks(m, s, func() time.Time { return clock })

	if _, err := m.Start(a.ID); err != nil {
		t.Fatal(err)
	}

	clock = start.Add(500 * time.Millisecond)
	recs, err := m.End()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("records = %+v", recs)
	}

	active, _ := s.GetActive(testUser)
	if active != nil {
		t.Error("active session survived end")
	}
	mirror, _ := m.Mirror().Load()
	if mirror != nil {
		t.Error("mirror survived end")
	}
}

func TestEndSplitsAtMidnight(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")

	start := at(2026, 3, 1, 22, 0, 0, 0)
	clock := start
	setClocks(m, s, func() time.Time { return clock })

	if _, err := m.Start(a.ID); err != nil {
		t.Fatal(err)
	}

	clock = at(2026, 3, 3, 2, 0, 0, 0)
	recs, err := m.End()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Duration != 2*60*60*1000-1 {
		t.Errorf("day one tail = %d", recs[0].Duration)
	}
	if recs[1].Duration != 24*60*60*1000 {
		t.Errorf("intermediate day = %d", recs[1].Duration)
	}
	if recs[2].Duration != 2*60*60*1000 {
		t.Errorf("day three head = %d", recs[2].Duration)
	}
}

func TestEndIdleClearsStaleMirror(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.Mirror().Save(Mirror{TagID: "ghost", SessionID: "gone"}); err != nil {
		t.Fatal(err)
	}

	recs, err := m.End()
	if err != nil {
		t.Fatal(err)
	}
	if recs != nil {
		t.Errorf("records = %+v", recs)
	}
	mirror, _ := m.Mirror().Load()
	if mirror != nil {
		t.Error("stale mirror survived")
	}
}

// ============================================================
// Orphan cleanup
// ============================================================

// fakeSessions lets tests seed states the store's unique index forbids,
// such as several concurrent active rows.
type fakeSessions struct {
	active  []store.ActiveSession
	records []store.Record
}

func (f *fakeSessions) GetActive(userID string) (*store.ActiveSession, error) {
	if len(f.active) == 0 {
		return nil, nil
	}
	a := f.active[0]
	return &a, nil
}

func (f *fakeSessions) GetAllActive(userID string) ([]store.ActiveSession, error) {
	out := make([]store.ActiveSession, len(f.active))
	copy(out, f.active)
	return out, nil
}

func (f *fakeSessions) InsertActive(userID, tagID string) (*store.ActiveSession, error) {
	a := store.ActiveSession{
		ID:        fmt.Sprintf("sess-%d", len(f.active)+len(f.records)),
		UserID:    userID,
		TagID:     tagID,
		StartTime: time.Now(),
	}
	f.active = append(f.active, a)
	return &a, nil
}

func (f *fakeSessions) DeleteActive(id string) error {
	for i, a := range f.active {
		if a.ID == id {
			f.active = append(f.active[:i], f.active[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeSessions) InsertRecords(recs []store.Record) error {
	f.records = append(f.records, recs...)
	return nil
}

func (f *fakeSessions) QueryRecords(userID string, from, to time.Time) ([]store.Record, error) {
	return f.records, nil
}

func (f *fakeSessions) SumDurationByTag(userID string, since time.Time) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func TestCleanupOrphansEndsEveryRow(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	now := at(2026, 3, 1, 12, 0, 0, 0)
	fake := &fakeSessions{active: []store.ActiveSession{
		{ID: "s1", UserID: testUser, TagID: "a", StartTime: now.Add(-time.Hour)},
		{ID: "s2", UserID: testUser, TagID: "b", StartTime: now.Add(-30 * time.Minute)},
	}}

	mirror := NewMirrorSlot(s, zerolog.Nop())
	m := NewManager(testUser, fake, s, mirror, zerolog.Nop())
	m.SetClock(func() time.Time { return now })

	if err := m.CleanupOrphans(); err != nil {
		t.Fatal(err)
	}

	if len(fake.active) != 0 {
		t.Errorf("%d active rows survived", len(fake.active))
	}
	if len(fake.records) != 2 {
		t.Fatalf("got %d records, want 2", len(fake.records))
	}
	var total int64
	for _, r := range fake.records {
		total += r.Duration
	}
	if total != 90*60*1000 {
		t.Errorf("committed total = %d", total)
	}
}

// ============================================================
// Fetch and mirror reconciliation
// ============================================================

func TestFetchRebuildsMirror(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")

	fixed := at(2026, 3, 1, 9, 0, 0, 0)
	setClocks(m, s, func() time.Time { return fixed })

	// Another device started a session; our mirror knows nothing.
	if _, err := s.InsertActive(testUser, a.ID); err != nil {
		t.Fatal(err)
	}

	sess, err := m.Fetch()
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil || sess.TagID != a.ID {
		t.Fatalf("fetched %+v", sess)
	}

	mirror, _ := m.Mirror().Load()
	if mirror == nil || mirror.TagID != a.ID {
		t.Fatalf("mirror = %+v", mirror)
	}
}

func TestFetchIdleClearsMirror(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.Mirror().Save(Mirror{TagID: "ghost"}); err != nil {
		t.Fatal(err)
	}

	sess, err := m.Fetch()
	if err != nil {
		t.Fatal(err)
	}
	if sess != nil {
		t.Fatalf("fetched %+v", sess)
	}
	mirror, _ := m.Mirror().Load()
	if mirror != nil {
		t.Error("mirror survived idle reconcile")
	}
}

func TestElapsedIncludesAccumulated(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")

	start := at(2026, 3, 1, 9, 0, 0, 0)
	clock := start
	setClocks(m, s, func() time.Time { return clock })

	// Ten minutes already committed today.
	err := s.InsertRecords([]store.Record{{
		ID: "prior", UserID: testUser, TagID: a.ID,
		Duration: 600_000, CreatedAt: start.Add(-2 * time.Hour),
	}})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Start(a.ID); err != nil {
		t.Fatal(err)
	}

	clock = start.Add(5 * time.Second)
	if got := m.Elapsed(); got != 605_000 {
		t.Errorf("elapsed = %d", got)
	}
}

func TestElapsedZeroWhenIdle(t *testing.T) {
	m, _ := newTestManager(t)
	if got := m.Elapsed(); got != 0 {
		t.Errorf("elapsed = %d", got)
	}
}

// ============================================================
// Gap filling
// ============================================================

func TestFillGapValidation(t *testing.T) {
	m, _ := newTestManager(t)

	var verr *ValidationError
	if err := m.FillGap("", at(2026, 3, 1, 10, 0, 0, 0), 60_000); !errors.As(err, &verr) {
		t.Errorf("empty tag: %v", err)
	}
	if err := m.FillGap("t", at(2026, 3, 1, 10, 0, 0, 0), 0); !errors.As(err, &verr) {
		t.Errorf("zero duration: %v", err)
	}
}

func TestFillGapCommitsRecord(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "a")

	start := at(2026, 3, 1, 10, 0, 0, 0)
	if err := m.FillGap(a.ID, start, 15*60*1000); err != nil {
		t.Fatal(err)
	}

	recs, err := s.QueryRecords(testUser, start, start)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Duration != 15*60*1000 {
		t.Fatalf("records = %+v", recs)
	}
}

// ============================================================
// Tag registry
// ============================================================

func TestAddTagRejectsBlank(t *testing.T) {
	m, _ := newTestManager(t)

	var verr *ValidationError
	if _, err := m.AddTag("   "); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateTagRefreshesMirror(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "old name")

	setClocks(m, s, func() time.Time { return at(2026, 3, 1, 9, 0, 0, 0) })
	if _, err := m.Start(a.ID); err != nil {
		t.Fatal(err)
	}

	name := "new name"
	color := "#ff0000"
	if err := m.UpdateTag(a.ID, store.TagPatch{Name: &name, Color: &color}); err != nil {
		t.Fatal(err)
	}

	mirror, _ := m.Mirror().Load()
	if mirror == nil {
		t.Fatal("mirror empty")
	}
	if mirror.Name != "new name" || mirror.Color != "#ff0000" {
		t.Errorf("mirror = %+v", mirror)
	}
}

func TestDeleteTagDiscardsActiveSession(t *testing.T) {
	m, s := newTestManager(t)
	a := mustAddTag(t, m, "doomed")

	start := at(2026, 3, 1, 9, 0, 0, 0)
	clock := start
	setClocks(m, s, func() time.Time { return clock })

	if _, err := m.Start(a.ID); err != nil {
		t.Fatal(err)
	}

	clock = start.Add(time.Hour)
	if err := m.DeleteTag(a.ID); err != nil {
		t.Fatal(err)
	}

	// The in-flight hour is discarded, not committed.
	recs, err := s.QueryRecords(testUser, start.Add(-time.Hour), clock)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("records = %+v", recs)
	}

	active, _ := s.GetActive(testUser)
	if active != nil {
		t.Error("active session survived tag delete")
	}
	mirror, _ := m.Mirror().Load()
	if mirror != nil {
		t.Error("mirror survived tag delete")
	}
	tags, _ := m.Tags()
	if len(tags) != 0 {
		t.Errorf("tags = %+v", tags)
	}
}

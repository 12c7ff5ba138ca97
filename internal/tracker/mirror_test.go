package tracker

import (
	"testing"

	"github.com/rs/zerolog"

	"studylog/internal/store"
)

func newTestMirror(t *testing.T) (*MirrorSlot, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewMirrorSlot(s, zerolog.Nop()), s
}

func TestMirrorEmptySlot(t *testing.T) {
	slot, _ := newTestMirror(t)

	m, err := slot.Load()
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatalf("got %+v from empty slot", m)
	}
}

func TestMirrorRoundTrip(t *testing.T) {
	slot, _ := newTestMirror(t)

	in := Mirror{
		TagID:         "tag-1",
		SessionID:     "sess-1",
		StartMs:       1_700_000_000_000,
		Name:          "reading",
		Color:         "#ff0000",
		Icon:          "book",
		AccumulatedMs: 42_000,
	}
	if err := slot.Save(in); err != nil {
		t.Fatal(err)
	}

	out, err := slot.Load()
	if err != nil {
		t.Fatal(err)
	}
	if out == nil || *out != in {
		t.Fatalf("round trip: %+v", out)
	}

	if err := slot.Clear(); err != nil {
		t.Fatal(err)
	}
	if m, _ := slot.Load(); m != nil {
		t.Error("slot not empty after clear")
	}
}

// A corrupt slot reads as empty; the next reconcile rewrites it.
func TestMirrorCorruptTreatedAsEmpty(t *testing.T) {
	slot, s := newTestMirror(t)

	if err := s.SetSetting(MirrorKey, "{not json"); err != nil {
		t.Fatal(err)
	}

	m, err := slot.Load()
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Fatalf("got %+v from corrupt slot", m)
	}
}

package tracker

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studylog/internal/store"
)

// SessionStore is the persistence contract for active and committed
// sessions. *store.Store satisfies it.
type SessionStore interface {
	GetActive(userID string) (*store.ActiveSession, error)
	GetAllActive(userID string) ([]store.ActiveSession, error)
	InsertActive(userID, tagID string) (*store.ActiveSession, error)
	DeleteActive(id string) error
	InsertRecords(recs []store.Record) error
	QueryRecords(userID string, from, to time.Time) ([]store.Record, error)
	SumDurationByTag(userID string, since time.Time) (map[string]int64, error)
}

// CategoryStore is the persistence contract for tags.
type CategoryStore interface {
	ListTags(userID string) ([]store.Tag, error)
	CreateTag(userID, name string) (*store.Tag, error)
	UpdateTag(id string, patch store.TagPatch) error
	DeleteTag(id string) error
}

// Manager owns the session lifecycle for one user: the single in-progress
// interval, its local mirror, and the tag registry operations that interact
// with it. All destructive transitions re-read the authoritative
// active-session row first; the mirror is never trusted for writes.
type Manager struct {
	userID   string
	sessions SessionStore
	tags     CategoryStore
	mirror   *MirrorSlot
	logger   zerolog.Logger
	now      func() time.Time

	// Re-entrancy guard: Switch spans two writes, and callers (key
	// handlers, timers) can fire it concurrently. Only one runs at a time;
	// the rest are no-ops.
	switching atomic.Bool
}

func NewManager(userID string, sessions SessionStore, tags CategoryStore, mirror *MirrorSlot, logger zerolog.Logger) *Manager {
	return &Manager{
		userID:   userID,
		sessions: sessions,
		tags:     tags,
		mirror:   mirror,
		logger:   logger.With().Str("component", "session-manager").Logger(),
		now:      time.Now,
	}
}

// SetClock overrides the manager's time source, for tests.
func (m *Manager) SetClock(fn func() time.Time) {
	m.now = fn
}

// Mirror exposes the mirror slot for read-only consumers (timer displays).
func (m *Manager) Mirror() *MirrorSlot {
	return m.mirror
}

// Start begins a session for the tag. It fails with ConflictError when a
// session is already running; ending or cleaning up first is the caller's
// job, which keeps the transition atomic and observable.
func (m *Manager) Start(tagID string) (*store.ActiveSession, error) {
	cur, err := m.sessions.GetActive(m.userID)
	if err != nil {
		return nil, storeErr("start", err)
	}
	if cur != nil {
		return nil, &ConflictError{ActiveTagID: cur.TagID}
	}

	sess, err := m.sessions.InsertActive(m.userID, tagID)
	if err != nil {
		return nil, storeErr("start", err)
	}

	m.logger.Info().Str("tag_id", tagID).Str("session_id", sess.ID).Msg("session started")
	m.rebuildMirror(sess)
	return sess, nil
}

// Switch moves tracking to another tag: orphan cleanup, end, start, as one
// guarded operation. Switching to the already-active tag is a no-op. On
// failure the mirror is re-derived from authoritative state instead of
// trusting optimistic local changes.
func (m *Manager) Switch(tagID string) error {
	if !m.switching.CompareAndSwap(false, true) {
		return nil // a switch is already in flight
	}
	defer m.switching.Store(false)

	cur, err := m.sessions.GetActive(m.userID)
	if err == nil && cur != nil && cur.TagID == tagID {
		return nil
	}

	if err := m.mirror.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("clear mirror before switch")
	}

	if err := m.CleanupOrphans(); err != nil {
		m.refresh()
		return err
	}

	if _, err := m.Start(tagID); err != nil {
		// A racing device may have started between cleanup and start;
		// repair once and retry.
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			if cerr := m.CleanupOrphans(); cerr == nil {
				if _, rerr := m.Start(tagID); rerr == nil {
					return nil
				}
			}
		}
		m.refresh()
		return err
	}
	return nil
}

// End closes the running session: the authoritative row is re-read (never
// the mirror, to avoid racing another device), the interval [start, now) is
// split at midnight, and the resulting records are committed. Returns the
// written records; empty when nothing survived the minimum-duration floor.
func (m *Manager) End() ([]store.Record, error) {
	sess, err := m.sessions.GetActive(m.userID)
	if err != nil {
		return nil, storeErr("end", err)
	}
	if sess == nil {
		if err := m.mirror.Clear(); err != nil {
			m.logger.Warn().Err(err).Msg("clear stale mirror")
		}
		return nil, nil
	}
	recs, err := m.endSession(sess)
	if err != nil {
		m.refresh()
		return nil, err
	}
	return recs, nil
}

func (m *Manager) endSession(sess *store.ActiveSession) ([]store.Record, error) {
	now := m.now()
	drafts := Segment(sess.StartTime, now, sess.TagID)

	recs := make([]store.Record, 0, len(drafts))
	for _, d := range drafts {
		recs = append(recs, store.Record{
			ID:        uuid.NewString(),
			UserID:    m.userID,
			TagID:     d.TagID,
			Duration:  d.Duration,
			CreatedAt: d.CreatedAt,
		})
	}

	if err := m.sessions.InsertRecords(recs); err != nil {
		return nil, storeErr("commit records", err)
	}
	if err := m.sessions.DeleteActive(sess.ID); err != nil {
		return nil, storeErr("delete active session", err)
	}
	if err := m.mirror.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("clear mirror after end")
	}

	m.logger.Info().
		Str("session_id", sess.ID).
		Str("tag_id", sess.TagID).
		Int("records", len(recs)).
		Msg("session ended")
	return recs, nil
}

// CleanupOrphans ends every active row found for the user. The invariant is
// one row at most, but a crashed or raced transition can leave extras; this
// is the repair sweep, run before every start.
func (m *Manager) CleanupOrphans() error {
	sessions, err := m.sessions.GetAllActive(m.userID)
	if err != nil {
		return storeErr("cleanup orphans", err)
	}
	if len(sessions) > 1 {
		m.logger.Warn().Int("count", len(sessions)).Msg("multiple active sessions found")
	}
	for i := range sessions {
		if _, err := m.endSession(&sessions[i]); err != nil {
			return err
		}
	}
	return nil
}

// Fetch reconciles store state into the mirror and returns the active
// session, nil when idle.
func (m *Manager) Fetch() (*store.ActiveSession, error) {
	sess, err := m.sessions.GetActive(m.userID)
	if err != nil {
		return nil, storeErr("fetch", err)
	}
	if sess == nil {
		if err := m.mirror.Clear(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	m.rebuildMirror(sess)
	return sess, nil
}

// RefreshAll re-derives the mirror from authoritative state: the reaction
// to any remote-change signal, and the recovery path after a failed
// transition.
func (m *Manager) RefreshAll() error {
	_, err := m.Fetch()
	return err
}

func (m *Manager) refresh() {
	if err := m.RefreshAll(); err != nil {
		m.logger.Error().Err(err).Msg("refresh after failed transition")
	}
}

// rebuildMirror denormalizes the session's tag attributes and today's
// accumulated total into the mirror. Best effort: a failure leaves the
// mirror stale, which the next reconcile repairs.
func (m *Manager) rebuildMirror(sess *store.ActiveSession) {
	tags, err := m.tags.ListTags(m.userID)
	if err != nil {
		m.logger.Warn().Err(err).Msg("rebuild mirror: list tags")
		return
	}
	totals, err := m.sessions.SumDurationByTag(m.userID, startOfDay(m.now()))
	if err != nil {
		m.logger.Warn().Err(err).Msg("rebuild mirror: daily totals")
		return
	}

	mirror := Mirror{
		TagID:         sess.TagID,
		SessionID:     sess.ID,
		StartMs:       sess.StartTime.UnixMilli(),
		AccumulatedMs: totals[sess.TagID],
	}
	for _, t := range tags {
		if t.ID == sess.TagID {
			mirror.Name = t.Name
			mirror.Color = t.Color
			mirror.Icon = t.Icon
			break
		}
	}

	if err := m.mirror.Save(mirror); err != nil {
		m.logger.Warn().Err(err).Msg("save mirror")
	}
}

// Elapsed returns the current display value for the running session, 0 when
// idle. Reads the mirror only; it never touches the store.
func (m *Manager) Elapsed() int64 {
	mirror, err := m.mirror.Load()
	if err != nil || mirror == nil {
		return 0
	}
	return Elapsed(mirror.Start(), mirror.AccumulatedMs, m.now())
}

// FillGap commits a record covering an empty timetable segment.
func (m *Manager) FillGap(tagID string, start time.Time, durationMs int64) error {
	if tagID == "" {
		return &ValidationError{Field: "tag", Reason: "no tag selected"}
	}
	if durationMs <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}
	rec := store.Record{
		ID:        uuid.NewString(),
		UserID:    m.userID,
		TagID:     tagID,
		Duration:  durationMs,
		CreatedAt: start,
	}
	return storeErr("fill gap", m.sessions.InsertRecords([]store.Record{rec}))
}

// --- Tag registry ---

func (m *Manager) Tags() ([]store.Tag, error) {
	tags, err := m.tags.ListTags(m.userID)
	return tags, storeErr("list tags", err)
}

func (m *Manager) AddTag(name string) (*store.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be blank"}
	}
	tag, err := m.tags.CreateTag(m.userID, name)
	return tag, storeErr("create tag", err)
}

// UpdateTag applies a partial tag edit. When the edited tag is the one
// mirrored for the running session, the mirror's display attributes are
// refreshed in place.
func (m *Manager) UpdateTag(id string, patch store.TagPatch) error {
	if patch.Name != nil {
		trimmed := strings.TrimSpace(*patch.Name)
		if trimmed == "" {
			return &ValidationError{Field: "name", Reason: "must not be blank"}
		}
		patch.Name = &trimmed
	}
	if err := m.tags.UpdateTag(id, patch); err != nil {
		return storeErr("update tag", err)
	}

	mirror, err := m.mirror.Load()
	if err == nil && mirror != nil && mirror.TagID == id {
		if patch.Name != nil {
			mirror.Name = *patch.Name
		}
		if patch.Color != nil {
			mirror.Color = *patch.Color
		}
		if patch.Icon != nil {
			mirror.Icon = *patch.Icon
		}
		if err := m.mirror.Save(*mirror); err != nil {
			m.logger.Warn().Err(err).Msg("refresh mirror after tag edit")
		}
	}
	return nil
}

// DeleteTag cascades: any active session holding the tag is terminated with
// its elapsed time discarded (not committed), then the tag's committed
// records and the tag itself are removed.
func (m *Manager) DeleteTag(id string) error {
	sessions, err := m.sessions.GetAllActive(m.userID)
	if err != nil {
		return storeErr("delete tag", err)
	}
	for _, sess := range sessions {
		if sess.TagID != id {
			continue
		}
		if err := m.sessions.DeleteActive(sess.ID); err != nil {
			return storeErr("delete tag", err)
		}
		if err := m.mirror.Clear(); err != nil {
			m.logger.Warn().Err(err).Msg("clear mirror after tag delete")
		}
		m.logger.Info().Str("tag_id", id).Msg("active session discarded with deleted tag")
	}

	return storeErr("delete tag", m.tags.DeleteTag(id))
}

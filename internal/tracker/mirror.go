package tracker

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// MirrorKey is the settings slot holding the persisted mirror JSON.
const MirrorKey = "active_study_session"

// Mirror is the device-local cache of the active session plus denormalized
// tag display attributes and the duration accumulated before the session
// started. It lets any view render a ticking clock without re-querying the
// store. Cache only: the active_sessions row is authoritative, and the
// mirror is rebuilt from it on every reconcile.
type Mirror struct {
	TagID         string `json:"tagId"`
	SessionID     string `json:"sessionId"`
	StartMs       int64  `json:"startTime"`
	Name          string `json:"name"`
	Color         string `json:"color"`
	Icon          string `json:"icon"`
	AccumulatedMs int64  `json:"accumulated"`
}

func (m Mirror) Start() time.Time {
	return time.UnixMilli(m.StartMs)
}

// SettingsStore is the key-value slot backing the persisted mirror.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// MirrorSlot owns the persisted mirror value. Readers go through Load; only
// the session manager writes it.
type MirrorSlot struct {
	settings SettingsStore
	logger   zerolog.Logger
}

func NewMirrorSlot(settings SettingsStore, logger zerolog.Logger) *MirrorSlot {
	return &MirrorSlot{
		settings: settings,
		logger:   logger.With().Str("component", "mirror").Logger(),
	}
}

// Load returns the cached mirror, or nil when the slot is empty or holds
// unparseable data. A corrupt slot is treated as empty, not as an error; the
// authoritative row will repopulate it on the next reconcile.
func (s *MirrorSlot) Load() (*Mirror, error) {
	raw, err := s.settings.GetSetting(MirrorKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("load mirror", err)
	}

	var m Mirror
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		s.logger.Warn().Err(err).Msg("discarding unparseable mirror")
		return nil, nil
	}
	return &m, nil
}

func (s *MirrorSlot) Save(m Mirror) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := s.settings.SetSetting(MirrorKey, string(raw)); err != nil {
		return storeErr("save mirror", err)
	}
	return nil
}

func (s *MirrorSlot) Clear() error {
	if err := s.settings.DeleteSetting(MirrorKey); err != nil {
		return storeErr("clear mirror", err)
	}
	return nil
}

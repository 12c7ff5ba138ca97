package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time

	subMu  sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		now:    time.Now,
		subs:   make(map[int]*subscriber),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:", zerolog.Nop())
}

func (s *Store) Close() error {
	s.closeSubscribers()
	return s.db.Close()
}

// SetClock overrides the store's time source. Timestamps assigned by the
// store (active-session start times, solved-problem log times) come from
// this clock.
func (s *Store) SetClock(fn func() time.Time) {
	s.now = fn
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	// Timestamps are stored as integer unix milliseconds: the engine is
	// millisecond-denominated end to end and range queries stay a plain
	// integer comparison.
	const ddl = `
	CREATE TABLE IF NOT EXISTS tags (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		name        TEXT NOT NULL,
		color       TEXT NOT NULL DEFAULT '#22d3ee',
		icon        TEXT NOT NULL DEFAULT 'moon',
		created_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tags_user ON tags(user_id);

	CREATE TABLE IF NOT EXISTS active_sessions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		tag_id      TEXT NOT NULL REFERENCES tags(id),
		start_time  INTEGER NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_active_sessions_user ON active_sessions(user_id);

	CREATE TABLE IF NOT EXISTS study_sessions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		tag_id      TEXT NOT NULL REFERENCES tags(id),
		duration    INTEGER NOT NULL CHECK (duration > 0),
		created_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_study_sessions_user_created ON study_sessions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_study_sessions_tag ON study_sessions(tag_id);

	CREATE TABLE IF NOT EXISTS solved_problems (
		user_id  TEXT NOT NULL,
		date     TEXT NOT NULL,
		tag_id   TEXT NOT NULL DEFAULT '',
		count    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user_id, date, tag_id)
	);

	CREATE TABLE IF NOT EXISTS solved_problem_logs (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		tag_id      TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_solved_logs_user_created ON solved_problem_logs(user_id, created_at);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/studylog/studylog.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "studylog", "studylog.db"), nil
}

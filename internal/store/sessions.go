package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GetActive returns the user's active session, or nil when idle.
func (s *Store) GetActive(userID string) (*ActiveSession, error) {
	a := &ActiveSession{}
	var startTime int64
	err := s.db.QueryRow(
		`SELECT id, user_id, tag_id, start_time FROM active_sessions WHERE user_id = ? LIMIT 1`,
		userID,
	).Scan(&a.ID, &a.UserID, &a.TagID, &startTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	a.StartTime = time.UnixMilli(startTime)
	return a, nil
}

// GetAllActive returns every active row for the user. The unique index keeps
// this at one row in practice; callers sweep defensively anyway.
func (s *Store) GetAllActive(userID string) ([]ActiveSession, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, tag_id, start_time FROM active_sessions WHERE user_id = ? ORDER BY start_time`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ActiveSession
	for rows.Next() {
		var a ActiveSession
		var startTime int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.TagID, &startTime); err != nil {
			return nil, err
		}
		a.StartTime = time.UnixMilli(startTime)
		sessions = append(sessions, a)
	}
	return sessions, rows.Err()
}

// InsertActive creates the active session with a store-assigned start time.
// The unique index on user_id rejects a second concurrent row.
func (s *Store) InsertActive(userID, tagID string) (*ActiveSession, error) {
	a := &ActiveSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		TagID:     tagID,
		StartTime: time.UnixMilli(s.now().UnixMilli()),
	}
	_, err := s.db.Exec(
		`INSERT INTO active_sessions (id, user_id, tag_id, start_time) VALUES (?, ?, ?, ?)`,
		a.ID, a.UserID, a.TagID, a.StartTime.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert active session: %w", err)
	}
	s.notify(userID, TableActiveSessions)
	return a, nil
}

func (s *Store) DeleteActive(id string) error {
	var userID string
	err := s.db.QueryRow(`SELECT user_id FROM active_sessions WHERE id = ?`, id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // already gone, another device won the race
	}
	if err != nil {
		return fmt.Errorf("get active session %s: %w", id, err)
	}
	if _, err := s.db.Exec(`DELETE FROM active_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete active session %s: %w", id, err)
	}
	s.notify(userID, TableActiveSessions)
	return nil
}

package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Solved-problem counters: one count row per (user, date, tag) plus an
// append-only log row per increment. Dates are local YYYY-MM-DD strings; an
// empty tag id means untagged.

func (s *Store) UpsertSolvedCount(userID, date, tagID string, count int) error {
	_, err := s.db.Exec(
		`INSERT INTO solved_problems (user_id, date, tag_id, count) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, date, tag_id) DO UPDATE SET count = excluded.count`,
		userID, date, tagID, count,
	)
	if err != nil {
		return fmt.Errorf("upsert solved count: %w", err)
	}
	s.notify(userID, TableSolvedProblems)
	return nil
}

func (s *Store) GetSolvedCounts(userID, date string) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT tag_id, count FROM solved_problems WHERE user_id = ? AND date = ?`,
		userID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("get solved counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tagID string
		var count int
		if err := rows.Scan(&tagID, &count); err != nil {
			return nil, err
		}
		counts[tagID] = count
	}
	return counts, rows.Err()
}

func (s *Store) InsertSolvedLog(userID, tagID string) error {
	_, err := s.db.Exec(
		`INSERT INTO solved_problem_logs (id, user_id, tag_id, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, tagID, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert solved log: %w", err)
	}
	return nil
}

// DeleteLatestSolvedLog removes the newest log row for the tag within the
// given day window, mirroring a decrement.
func (s *Store) DeleteLatestSolvedLog(userID, tagID string, dayStart, dayEnd time.Time) error {
	_, err := s.db.Exec(
		`DELETE FROM solved_problem_logs WHERE id = (
			SELECT id FROM solved_problem_logs
			WHERE user_id = ? AND tag_id = ? AND created_at >= ? AND created_at <= ?
			ORDER BY created_at DESC LIMIT 1
		)`,
		userID, tagID, dayStart.UnixMilli(), dayEnd.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("delete solved log: %w", err)
	}
	return nil
}

func (s *Store) GetSolvedLogs(userID string, dayStart, dayEnd time.Time) ([]SolvedLog, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, tag_id, created_at FROM solved_problem_logs
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at`,
		userID, dayStart.UnixMilli(), dayEnd.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("get solved logs: %w", err)
	}
	defer rows.Close()

	var logs []SolvedLog
	for rows.Next() {
		var l SolvedLog
		var createdAt int64
		if err := rows.Scan(&l.ID, &l.UserID, &l.TagID, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt = time.UnixMilli(createdAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SolvedHistory aggregates counts by date for dates >= sinceDate, ascending.
func (s *Store) SolvedHistory(userID, sinceDate string) ([]SolvedDay, error) {
	rows, err := s.db.Query(
		`SELECT date, COALESCE(SUM(count), 0) FROM solved_problems
		 WHERE user_id = ? AND date >= ?
		 GROUP BY date ORDER BY date`,
		userID, sinceDate,
	)
	if err != nil {
		return nil, fmt.Errorf("solved history: %w", err)
	}
	defer rows.Close()

	var days []SolvedDay
	for rows.Next() {
		var d SolvedDay
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

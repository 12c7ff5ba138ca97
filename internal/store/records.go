package store

import (
	"fmt"
	"time"
)

// InsertRecords writes committed records in one transaction.
func (s *Store) InsertRecords(recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert records: %w", err)
	}
	defer tx.Rollback()

	for _, r := range recs {
		_, err := tx.Exec(
			`INSERT INTO study_sessions (id, user_id, tag_id, duration, created_at) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.UserID, r.TagID, r.Duration, r.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert records: %w", err)
	}

	s.notify(recs[0].UserID, TableStudySessions)
	return nil
}

// QueryRecords returns committed records with created_at in [from, to]
// inclusive, ordered ascending.
func (s *Store) QueryRecords(userID string, from, to time.Time) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, tag_id, duration, created_at FROM study_sessions
		 WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at`,
		userID, from.UnixMilli(), to.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var r Record
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.TagID, &r.Duration, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(createdAt)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// SumDurationByTag sums committed durations per tag for records starting at
// or after since.
func (s *Store) SumDurationByTag(userID string, since time.Time) (map[string]int64, error) {
	rows, err := s.db.Query(
		`SELECT tag_id, COALESCE(SUM(duration), 0) FROM study_sessions
		 WHERE user_id = ? AND created_at >= ?
		 GROUP BY tag_id`,
		userID, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("sum durations: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var tagID string
		var total int64
		if err := rows.Scan(&tagID, &total); err != nil {
			return nil, err
		}
		totals[tagID] = total
	}
	return totals, rows.Err()
}

package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTagColor = "#22d3ee"
	defaultTagIcon  = "moon"
)

func (s *Store) CreateTag(userID, name string) (*Tag, error) {
	id := uuid.NewString()
	now := s.now().UnixMilli()
	_, err := s.db.Exec(
		`INSERT INTO tags (id, user_id, name, color, icon, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, name, defaultTagColor, defaultTagIcon, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tag: %w", err)
	}
	s.notify(userID, TableTags)
	return s.GetTag(id)
}

func (s *Store) GetTag(id string) (*Tag, error) {
	t := &Tag{}
	var createdAt int64
	err := s.db.QueryRow(
		`SELECT id, user_id, name, color, icon, created_at FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.Icon, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get tag %s: %w", id, err)
	}
	t.CreatedAt = time.UnixMilli(createdAt)
	return t, nil
}

func (s *Store) ListTags(userID string) ([]Tag, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, color, icon, created_at FROM tags WHERE user_id = ? ORDER BY created_at, name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Color, &t.Icon, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = time.UnixMilli(createdAt)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *Store) UpdateTag(id string, patch TagPatch) error {
	t, err := s.GetTag(id)
	if err != nil {
		return err
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	if patch.Color != nil {
		t.Color = *patch.Color
	}
	if patch.Icon != nil {
		t.Icon = *patch.Icon
	}
	_, err = s.db.Exec(
		`UPDATE tags SET name = ?, color = ?, icon = ? WHERE id = ?`,
		t.Name, t.Color, t.Icon, id,
	)
	if err != nil {
		return fmt.Errorf("update tag %s: %w", id, err)
	}
	s.notify(t.UserID, TableTags)
	return nil
}

// DeleteTag removes the tag and every committed record referencing it, in
// that order, inside one transaction. Callers must terminate any active
// session holding the tag first.
func (s *Store) DeleteTag(id string) error {
	t, err := s.GetTag(id)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete tag: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM study_sessions WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("delete tag records: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete tag %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete tag: %w", err)
	}

	s.notify(t.UserID, TableStudySessions)
	s.notify(t.UserID, TableTags)
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KV is the key/value medium preferences are persisted in.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValue(ctx context.Context, key string) error
	ListValues(ctx context.Context) ([]Entry, error)
}

// Entry is one stored preference row.
type Entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetValue returns the stored value for key. ok is false when the key is absent.
func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.DB == nil {
		return "", false, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("preference key is required")
	}

	var value string
	row := s.DB.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch preference %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue overwrites the value stored for key.
func (s *Store) SetValue(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("preference key is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store preference %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting an absent key is not an error.
func (s *Store) DeleteValue(ctx context.Context, key string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}

// ListValues returns all stored preferences ordered by key.
func (s *Store) ListValues(ctx context.Context) ([]Entry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT key, value, updated_at
		FROM preferences
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []Entry{}
	for rows.Next() {
		var (
			entry     Entry
			updatedAt int64
		)
		if err := rows.Scan(&entry.Key, &entry.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan preferences: %w", err)
		}
		entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return entries, nil
}

package options

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadTransient returns the raw transient value. Expired entries are deleted
// and reported as missing.
func (s *Store) LoadTransient(ctx context.Context, name string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM transients WHERE name = ?`, name,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load transient %s: %w", name, err)
	}
	if expiresAt > 0 && s.now().UTC().Unix() >= expiresAt {
		if err := s.DeleteTransient(ctx, name); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, true, nil
}

// SaveTransient stores value under name. A zero ttl never expires.
func (s *Store) SaveTransient(ctx context.Context, name string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().UTC().Add(ttl).Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transients (name, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		name, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("save transient %s: %w", name, err)
	}
	return nil
}

// DeleteTransient removes the named transient.
func (s *Store) DeleteTransient(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transients WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete transient %s: %w", name, err)
	}
	return nil
}

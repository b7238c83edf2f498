package options

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Option keys stored per product.
const (
	KeyLicenceKey    = "licence_key"
	KeyEmail         = "email"
	KeyErrors        = "errors"
	KeyHideKeyNotice = "hide_key_notice"
)

// Store persists per-product helper settings and site transients in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the options database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create options dir: %w", err)
	}

	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(30000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open options db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS options (
		product_slug TEXT NOT NULL,
		option_key   TEXT NOT NULL,
		value        TEXT NOT NULL,
		updated_at   INTEGER NOT NULL,
		PRIMARY KEY (product_slug, option_key)
	);
	CREATE TABLE IF NOT EXISTS transients (
		name       TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init options schema: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get decodes the stored value for product/key into dst. It reports false when
// nothing is stored.
func (s *Store) Get(ctx context.Context, product, key string, dst any) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM options WHERE product_slug = ? AND option_key = ?`,
		product, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get option %s/%s: %w", product, key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode option %s/%s: %w", product, key, err)
	}
	return true, nil
}

// Update stores value for product/key, replacing any previous value.
func (s *Store) Update(ctx context.Context, product, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode option %s/%s: %w", product, key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO options (product_slug, option_key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (product_slug, option_key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		product, key, string(raw), s.now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("update option %s/%s: %w", product, key, err)
	}
	return nil
}

// Delete removes product/key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, product, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM options WHERE product_slug = ? AND option_key = ?`,
		product, key,
	); err != nil {
		return fmt.Errorf("delete option %s/%s: %w", product, key, err)
	}
	return nil
}

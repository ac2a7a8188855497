// Package sqlite keeps objects in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bucketq/internal/store"

	_ "modernc.org/sqlite"
)

func init() {
	store.Register("sqlite", func(_ context.Context, u *url.URL) (store.ObjectStore, error) {
		path := u.Host + u.Path
		if path == "" {
			return nil, fmt.Errorf("%w: sqlite url needs a file path", store.ErrInvalidURL)
		}
		return NewStore(path)
	})
}

type Store struct {
	DB *sql.DB
}

var _ store.ObjectStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	// pragmas in the DSN apply to every pooled connection; WAL lets
	// readers run alongside the single writer
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{DB: db}
	if err := st.Init(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) Init(ctx context.Context) error {
	if err := runMigrations(ctx, s.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS objects (
  key TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	q := `SELECT key FROM objects WHERE key >= ?`
	args := []any{prefix}
	if end := store.PrefixEnd(prefix); end != "" {
		q += ` AND key < ?`
		args = append(args, end)
	}
	q += ` ORDER BY key`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if strings.HasPrefix(key, prefix) {
			out = append(out, store.Suffix(key, prefix))
		}
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var body string
	err := s.DB.QueryRowContext(ctx, `SELECT body FROM objects WHERE key=?`, key).Scan(&body)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return body, true, nil
}

func (s *Store) Put(ctx context.Context, key, body string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO objects(key, body, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at
	`, key, body, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM objects WHERE key=?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Drop(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM objects`); err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

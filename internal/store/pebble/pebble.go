// Package pebblestore keeps objects in a local Pebble directory. A directory can
// be opened by one process at a time.
package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"bucketq/internal/store"

	"github.com/cockroachdb/pebble"
)

func init() {
	store.Register("pebble", func(_ context.Context, u *url.URL) (store.ObjectStore, error) {
		opts := Options{DataDir: u.Host + u.Path, Sync: true}
		if v := u.Query().Get("sync"); v != "" {
			sync, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%w: sync=%q", store.ErrInvalidURL, v)
			}
			opts.Sync = sync
		}
		return Open(opts)
	})
}

// Options configures the Pebble store.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Sync forces a WAL fsync on every write. When false Pebble groups
	// syncs within SyncInterval.
	Sync         bool
	SyncInterval time.Duration
	// PebbleOptions allows advanced tuning of Pebble. If nil, defaults are used.
	PebbleOptions *pebble.Options
}

type Store struct {
	inner     *pebble.DB
	writeOpts *pebble.WriteOptions
}

var _ store.ObjectStore = (*Store)(nil)

func Open(opts Options) (*Store, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	writeOpts := pebble.Sync
	if !opts.Sync {
		interval := opts.SyncInterval
		if interval <= 0 {
			interval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return interval }
		writeOpts = pebble.NoSync
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", opts.DataDir, err)
	}
	return &Store{inner: inner, writeOpts: writeOpts}, nil
}

// Init is a no-op: Open already created the directory.
func (s *Store) Init(context.Context) error { return nil }

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	iterOpts := &pebble.IterOptions{LowerBound: []byte(prefix)}
	if end := store.PrefixEnd(prefix); end != "" {
		iterOpts.UpperBound = []byte(end)
	}
	it, err := s.inner.NewIter(iterOpts)
	if err != nil {
		return nil, fmt.Errorf("pebble: list %q: %w", prefix, err)
	}
	defer it.Close()

	out := []string{}
	for it.First(); it.Valid(); it.Next() {
		out = append(out, store.Suffix(string(it.Key()), prefix))
	}
	return out, it.Error()
}

// Get copies the value for the given key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	val, closer, err := s.inner.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pebble: get %s: %w", key, err)
	}
	defer closer.Close()
	return string(val), true, nil
}

func (s *Store) Put(_ context.Context, key, body string) error {
	if err := s.inner.Set([]byte(key), []byte(body), s.writeOpts); err != nil {
		return fmt.Errorf("pebble: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	if err := s.inner.Delete([]byte(key), s.writeOpts); err != nil {
		return fmt.Errorf("pebble: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Drop(ctx context.Context) error {
	keys, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	b := s.inner.NewBatch()
	defer b.Close()
	// the range end is exclusive, so extend past the last key
	if err := b.DeleteRange([]byte(keys[0]), append([]byte(keys[len(keys)-1]), 0), nil); err != nil {
		return fmt.Errorf("pebble: drop: %w", err)
	}
	return b.Commit(s.writeOpts)
}

func (s *Store) Close() error {
	if s == nil || s.inner == nil {
		return nil
	}
	return s.inner.Close()
}

// Package store defines the flat object store that the queue, lock and
// metadata packages are built on.
//
// A backend offers four primitives (list by prefix, get, put, delete) and
// nothing else: no compare-and-swap, no multi-key transactions. Callers
// rely on two properties that every backend must provide:
//
//   - read-after-write consistency for a single key, and
//   - lexicographically ordered listing.
//
// Without both the lock protocol and the metadata replay order are unsound.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownScheme = errors.New("store: unknown url scheme")
	ErrInvalidURL    = errors.New("store: invalid url")
)

// ObjectStore is a flat key/value store with ordered prefix listing.
type ObjectStore interface {
	// Init creates the backing container when missing. It is idempotent.
	Init(ctx context.Context) error
	// List returns the suffixes of every key starting with prefix, with the
	// prefix and any leading "/" stripped, in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Get returns the body stored at key. ok is false when the key is missing.
	Get(ctx context.Context, key string) (body string, ok bool, err error)
	Put(ctx context.Context, key, body string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Drop removes every key in the store's namespace.
	Drop(ctx context.Context) error
	Close() error
}

// GetDefault returns the body at key, or def when the key is missing.
func GetDefault(ctx context.Context, s ObjectStore, key, def string) (string, error) {
	body, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return body, nil
}

// Join builds a key from path segments, skipping empty ones.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// Suffix strips prefix and any leading "/" from key.
func Suffix(key, prefix string) string {
	return strings.TrimLeft(strings.TrimPrefix(key, prefix), "/")
}

// PrefixEnd returns the smallest key greater than every key that starts
// with prefix. It returns "" when no such bound exists.
func PrefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// DeleteAll removes every key under prefix from s, one by one.
func DeleteAll(ctx context.Context, s ObjectStore, prefix string) error {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Delete(ctx, prefix+k); err != nil {
			return fmt.Errorf("store: delete %s: %w", prefix+k, err)
		}
	}
	return nil
}

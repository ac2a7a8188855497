// Package redisstore keeps objects in Redis.
//
// Each object is a string key <ns>:obj:<key>. Every key is also a member of
// the sorted set <ns>:keys with score 0, so ZRANGEBYLEX yields ordered
// prefix listings.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client, redisstore.WithNamespace("jobs"))
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"bucketq/internal/store"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "bucketq"

func init() {
	store.Register("redis", openURL)
	store.Register("rediss", openURL)
}

func openURL(_ context.Context, u *url.URL) (store.ObjectStore, error) {
	q := u.Query()
	ns := q.Get("ns")
	q.Del("ns")
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidURL, err)
	}
	s := New(redis.NewClient(opts), WithNamespace(ns))
	s.ownsClient = true
	return s, nil
}

// Option configures the Store.
type Option func(*Store)

// WithNamespace sets the key namespace. Empty keeps the default.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.ns = ns
		}
	}
}

type Store struct {
	client     redis.UniversalClient
	ns         string
	ownsClient bool
}

var _ store.ObjectStore = (*Store)(nil)

// New wraps client. The caller owns the client lifecycle.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, ns: defaultNamespace}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) objKey(key string) string { return s.ns + ":obj:" + key }
func (s *Store) indexKey() string         { return s.ns + ":keys" }

// Init verifies the connection. Redis needs no schema.
func (s *Store) Init(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	by := &redis.ZRangeBy{Min: "[" + prefix, Max: "+"}
	if end := store.PrefixEnd(prefix); end != "" {
		by.Max = "(" + end
	}
	if prefix == "" {
		by.Min = "-"
	}
	keys, err := s.client.ZRangeByLex(ctx, s.indexKey(), by).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list %q: %w", prefix, err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, store.Suffix(k, prefix))
		}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	body, err := s.client.Get(ctx, s.objKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return body, true, nil
}

func (s *Store) Put(ctx context.Context, key, body string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.objKey(key), body, 0)
	pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.objKey(key))
	pipe.ZRem(ctx, s.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Drop(ctx context.Context) error {
	keys, err := s.List(ctx, "")
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, k := range keys {
		pipe.Del(ctx, s.objKey(k))
	}
	pipe.Del(ctx, s.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: drop: %w", err)
	}
	return nil
}

// Close closes the client only when the store created it from a URL.
func (s *Store) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

// Package memory is a process-local object store. Every store returned by
// New or by a "mem://" URL is independent.
package memory

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"

	"bucketq/internal/store"
)

func init() {
	store.Register("mem", func(_ context.Context, _ *url.URL) (store.ObjectStore, error) {
		return New(), nil
	})
}

type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

var _ store.ObjectStore = (*Store)(nil)

func New() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Init(context.Context) error { return nil }

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, store.Suffix(k, prefix))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.data[key]
	return body, ok, nil
}

func (s *Store) Put(_ context.Context, key, body string) error {
	s.mu.Lock()
	s.data[key] = body
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Drop(context.Context) error {
	s.mu.Lock()
	s.data = make(map[string]string)
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }

// Len reports the number of keys held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Package meta keeps a small JSON document in a store.ObjectStore as a
// base snapshot plus an append-only log of merge patches.
//
// The base lives at meta/base as {"ts": <stamp>, "value": <doc>}. Each
// update is written to meta/updates/<stamp>. Reading the document applies,
// in stamp order, every log entry whose stamp is not older than the base.
// Squash folds the log into a new base and deletes the folded entries.
//
// Squash is not atomic with concurrent updates. An update written with a
// stamp at or below the new base stamp after Squash read the log is lost,
// and one deleted before a reader lists the log is seen only through the
// base.
package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"bucketq/internal/logging"
	"bucketq/internal/stamp"
	"bucketq/internal/store"

	"github.com/sirupsen/logrus"
)

const (
	baseKey      = "meta/base"
	updatePrefix = "meta/updates/"
	zeroStamp    = "0"

	// DefaultSquashThreshold is the log length above which Update squashes.
	DefaultSquashThreshold = 42
)

var ErrCorruptBase = errors.New("meta: corrupt base snapshot")

// Entry is one log record.
type Entry struct {
	Stamp string
	Patch Value
}

type base struct {
	TS    string `json:"ts"`
	Value Value  `json:"value"`
}

type Option func(*Store)

func WithSquashThreshold(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.threshold = n
		}
	}
}

func WithClock(c *stamp.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

type Store struct {
	st        store.ObjectStore
	clock     *stamp.Clock
	threshold int
	log       logrus.FieldLogger
}

func New(st store.ObjectStore, opts ...Option) *Store {
	s := &Store{
		st:        st,
		clock:     stamp.Default(),
		threshold: DefaultSquashThreshold,
		log:       logging.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) loadBase(ctx context.Context) (base, error) {
	body, ok, err := s.st.Get(ctx, baseKey)
	if err != nil {
		return base{}, fmt.Errorf("meta: read base: %w", err)
	}
	if !ok {
		return base{TS: zeroStamp}, nil
	}
	var b base
	if err := json.Unmarshal([]byte(body), &b); err != nil {
		return base{}, fmt.Errorf("%w: %v", ErrCorruptBase, err)
	}
	if b.TS == "" {
		b.TS = zeroStamp
	}
	return b, nil
}

// applicable lists the log entries not older than ts, in stamp order.
func (s *Store) applicable(ctx context.Context, ts string) ([]Entry, error) {
	stamps, err := s.st.List(ctx, updatePrefix)
	if err != nil {
		return nil, fmt.Errorf("meta: list updates: %w", err)
	}
	stamps = keepFrom(stamps, ts)
	sort.Slice(stamps, func(i, j int) bool { return stampLess(stamps[i], stamps[j]) })

	out := make([]Entry, 0, len(stamps))
	for _, st := range stamps {
		body, ok, err := s.st.Get(ctx, updatePrefix+st)
		if err != nil {
			return nil, fmt.Errorf("meta: read update %s: %w", st, err)
		}
		if !ok {
			// squashed away between list and read
			continue
		}
		patch, err := Parse(body)
		if err != nil {
			return nil, fmt.Errorf("meta: update %s: %w", st, err)
		}
		out = append(out, Entry{Stamp: st, Patch: patch})
	}
	return out, nil
}

func keepFrom(stamps []string, ts string) []string {
	out := stamps[:0:0]
	for _, st := range stamps {
		if !stampLess(st, ts) {
			out = append(out, st)
		}
	}
	return out
}

// stampLess compares stamps numerically so that stamps of differing width
// still order correctly.
func stampLess(a, b string) bool {
	a, b = trimZeros(a), trimZeros(b)
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

// Get rebuilds the current document.
func (s *Store) Get(ctx context.Context) (Value, error) {
	b, err := s.loadBase(ctx)
	if err != nil {
		return Value{}, err
	}
	entries, err := s.applicable(ctx, b.TS)
	if err != nil {
		return Value{}, err
	}
	v := b.Value
	for _, e := range entries {
		v = Merge(v, e.Patch)
	}
	return v, nil
}

// Log returns the entries Get would apply on top of the base.
func (s *Store) Log(ctx context.Context) ([]Entry, error) {
	b, err := s.loadBase(ctx)
	if err != nil {
		return nil, err
	}
	return s.applicable(ctx, b.TS)
}

// Update appends patch to the log. With squashIfNeeded it squashes once the
// log grows past the threshold.
func (s *Store) Update(ctx context.Context, patch Value, squashIfNeeded bool) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("meta: encode patch: %w", err)
	}
	err = s.clock.With(func(ts string) error {
		if err := s.st.Put(ctx, updatePrefix+ts, string(body)); err != nil {
			return fmt.Errorf("meta: write update: %w", err)
		}
		s.log.WithField("stamp", ts).Debug("meta update written")
		return nil
	})
	if err != nil {
		return err
	}

	if !squashIfNeeded {
		return nil
	}
	stamps, err := s.st.List(ctx, updatePrefix)
	if err != nil {
		return fmt.Errorf("meta: list updates: %w", err)
	}
	if len(stamps) > s.threshold {
		return s.Squash(ctx)
	}
	return nil
}

// Squash writes the current document as the new base and deletes the log
// entries it covers. An empty log leaves the base untouched but still
// removes entries stamped below it.
func (s *Store) Squash(ctx context.Context) error {
	b, err := s.loadBase(ctx)
	if err != nil {
		return err
	}
	entries, err := s.applicable(ctx, b.TS)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return s.pruneBelow(ctx, b.TS)
	}

	v := b.Value
	for _, e := range entries {
		v = Merge(v, e.Patch)
	}
	last := entries[len(entries)-1].Stamp

	body, err := json.Marshal(base{TS: last, Value: v})
	if err != nil {
		return fmt.Errorf("meta: encode base: %w", err)
	}
	if err := s.st.Put(ctx, baseKey, string(body)); err != nil {
		return fmt.Errorf("meta: write base: %w", err)
	}
	if err := s.pruneThrough(ctx, last); err != nil {
		return err
	}
	s.log.WithField("stamp", last).Info("meta log squashed")
	return nil
}

// pruneThrough deletes every log entry with a stamp at or below ts.
func (s *Store) pruneThrough(ctx context.Context, ts string) error {
	return s.prune(ctx, func(st string) bool { return !stampLess(ts, st) })
}

// pruneBelow deletes the log entries Get already ignores.
func (s *Store) pruneBelow(ctx context.Context, ts string) error {
	return s.prune(ctx, func(st string) bool { return stampLess(st, ts) })
}

func (s *Store) prune(ctx context.Context, drop func(stamp string) bool) error {
	stamps, err := s.st.List(ctx, updatePrefix)
	if err != nil {
		return fmt.Errorf("meta: list updates: %w", err)
	}
	for _, st := range stamps {
		if !drop(st) {
			continue
		}
		if err := s.st.Delete(ctx, updatePrefix+st); err != nil {
			return fmt.Errorf("meta: delete update %s: %w", st, err)
		}
	}
	return nil
}

// Drop deletes the base and the whole log.
func (s *Store) Drop(ctx context.Context) error {
	if err := store.DeleteAll(ctx, s.st, updatePrefix); err != nil {
		return fmt.Errorf("meta: drop: %w", err)
	}
	if err := s.st.Delete(ctx, baseKey); err != nil {
		return fmt.Errorf("meta: drop: %w", err)
	}
	s.log.Info("meta dropped")
	return nil
}

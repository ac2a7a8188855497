// Package lock implements a best-effort mutual exclusion lease on top of a
// store.ObjectStore that has no compare-and-swap.
//
// To acquire key a caller lists lock/<key>/. If any marker exists it gives
// up without writing. Otherwise it writes lock/<key>/<stamp>, lists again
// and holds the lock only if its own marker sorts first. The holder
// releases by deleting every marker under lock/<key>/, which also clears
// the markers of callers that lost the race.
//
// The protocol is not linearizable. Two known hazards remain:
//
//   - two processes that produce the same stamp, or whose clocks disagree,
//     can both believe they won;
//   - a holder that crashes before release leaves markers that block the
//     key until they are swept (see Sweep) or deleted by hand.
//
// Within one process, managers sharing a stamp.Clock issue and write their
// markers in stamp order, so in-process contenders never both win.
//
// Every marker records its owner and an expiry so that the second case can
// be cleaned up without guessing.
package lock

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"bucketq/internal/logging"
	"bucketq/internal/stamp"
	"bucketq/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const markerRoot = "lock/"

// DefaultTTL is how long a marker stays valid before Sweep may remove it.
const DefaultTTL = 10 * time.Minute

// Marker is one lock/<key>/<stamp> entry.
type Marker struct {
	Key       string    `json:"-"`
	Stamp     string    `json:"-"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"-"`
	// ExpiresAt is zero for markers that never expire.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (m Marker) Expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && now.After(m.ExpiresAt)
}

type Option func(*Manager)

// WithOwner sets the owner tag written into markers.
func WithOwner(owner string) Option {
	return func(m *Manager) {
		if owner != "" {
			m.owner = owner
		}
	}
}

// WithTTL sets the marker lifetime. Zero means markers never expire.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

func WithClock(c *stamp.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = l }
}

type Manager struct {
	st    store.ObjectStore
	clock *stamp.Clock
	owner string
	ttl   time.Duration
	log   logrus.FieldLogger
	now   func() time.Time
}

func New(st store.ObjectStore, opts ...Option) *Manager {
	m := &Manager{
		st:    st,
		clock: stamp.Default(),
		owner: defaultOwner(),
		ttl:   DefaultTTL,
		log:   logging.Discard(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func defaultOwner() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString())
}

// Owner returns the tag this manager writes into its markers.
func (m *Manager) Owner() string { return m.owner }

func markerPrefix(key string) string { return markerRoot + key + "/" }

// Lease is a held lock. Release it exactly once; later calls are no-ops.
type Lease struct {
	m     *Manager
	key   string
	stamp string
	once  sync.Once
	err   error
}

func (l *Lease) Key() string   { return l.key }
func (l *Lease) Stamp() string { return l.stamp }

// Acquire tries once to take the lock on key. It returns a nil lease and a
// nil error when another caller holds or is racing for the key.
func (m *Manager) Acquire(ctx context.Context, key string) (*Lease, error) {
	prefix := markerPrefix(key)
	log := m.log.WithField("key", key)

	existing, err := m.st.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("lock: list %s: %w", key, err)
	}
	if len(existing) > 0 {
		log.WithField("markers", len(existing)).Debug("lock busy")
		return nil, nil
	}

	body, err := m.markerBody()
	if err != nil {
		return nil, err
	}
	var ts string
	err = m.clock.With(func(s string) error {
		ts = s
		return m.st.Put(ctx, prefix+ts, body)
	})
	if err != nil {
		return nil, fmt.Errorf("lock: write marker %s: %w", key, err)
	}

	markers, err := m.st.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("lock: relist %s: %w", key, err)
	}
	sort.Strings(markers)
	if len(markers) == 0 || markers[0] != ts {
		// our marker stays behind for the winner's release to clear
		log.WithField("stamp", ts).Debug("lock lost race")
		return nil, nil
	}

	log.WithField("stamp", ts).Debug("lock acquired")
	return &Lease{m: m, key: key, stamp: ts}, nil
}

func (m *Manager) markerBody() (string, error) {
	mk := Marker{Owner: m.owner}
	if m.ttl > 0 {
		mk.ExpiresAt = m.now().Add(m.ttl).UTC()
	}
	b, err := json.Marshal(mk)
	if err != nil {
		return "", fmt.Errorf("lock: encode marker: %w", err)
	}
	return string(b), nil
}

// Release deletes every marker under the lease's key.
func (l *Lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		if err := store.DeleteAll(ctx, l.m.st, markerPrefix(l.key)); err != nil {
			l.err = fmt.Errorf("lock: release %s: %w", l.key, err)
			return
		}
		l.m.log.WithFields(logrus.Fields{"key": l.key, "stamp": l.stamp}).Debug("lock released")
	})
	return l.err
}

// WithLock runs fn while holding the lock on key. When the lock cannot be
// taken fn is not called and held is false. The lock is released on every
// exit path of fn, including a panic.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (held bool, err error) {
	lease, err := m.Acquire(ctx, key)
	if err != nil || lease == nil {
		return false, err
	}
	defer func() {
		rerr := lease.Release(context.WithoutCancel(ctx))
		if rerr == nil {
			return
		}
		if err == nil {
			err = rerr
			return
		}
		m.log.WithError(rerr).WithField("key", key).Warn("lock release failed")
	}()
	return true, fn(ctx)
}

// Markers lists the markers currently stored for key, oldest first.
func (m *Manager) Markers(ctx context.Context, key string) ([]Marker, error) {
	prefix := markerPrefix(key)
	stamps, err := m.st.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("lock: list %s: %w", key, err)
	}
	sort.Strings(stamps)

	out := make([]Marker, 0, len(stamps))
	for _, ts := range stamps {
		body, ok, err := m.st.Get(ctx, prefix+ts)
		if err != nil {
			return nil, fmt.Errorf("lock: read marker %s/%s: %w", key, ts, err)
		}
		if !ok {
			continue
		}
		out = append(out, m.decodeMarker(key, ts, body))
	}
	return out, nil
}

// decodeMarker accepts bodies that are not JSON; their expiry is derived
// from the stamp and the manager TTL.
func (m *Manager) decodeMarker(key, ts, body string) Marker {
	var mk Marker
	parsed := json.Unmarshal([]byte(body), &mk) == nil
	mk.Key, mk.Stamp = key, ts
	if created, err := stamp.Parse(ts); err == nil {
		mk.CreatedAt = created
	}
	if !parsed {
		mk.Owner = ""
		mk.ExpiresAt = time.Time{}
		if m.ttl > 0 && !mk.CreatedAt.IsZero() {
			mk.ExpiresAt = mk.CreatedAt.Add(m.ttl)
		}
	}
	return mk
}

// Keys lists every key that currently has at least one marker.
func (m *Manager) Keys(ctx context.Context) ([]string, error) {
	entries, err := m.st.List(ctx, markerRoot)
	if err != nil {
		return nil, fmt.Errorf("lock: list keys: %w", err)
	}
	seen := map[string]bool{}
	var keys []string
	for _, e := range entries {
		i := strings.LastIndex(e, "/")
		if i <= 0 {
			continue
		}
		if k := e[:i]; !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Sweep deletes the expired markers of key and reports how many it removed.
func (m *Manager) Sweep(ctx context.Context, key string) (int, error) {
	markers, err := m.Markers(ctx, key)
	if err != nil {
		return 0, err
	}
	now := m.now()
	n := 0
	for _, mk := range markers {
		if !mk.Expired(now) {
			continue
		}
		if err := m.st.Delete(ctx, markerPrefix(key)+mk.Stamp); err != nil {
			return n, fmt.Errorf("lock: sweep %s/%s: %w", key, mk.Stamp, err)
		}
		m.log.WithFields(logrus.Fields{"key": key, "stamp": mk.Stamp, "owner": mk.Owner}).Info("swept expired lock marker")
		n++
	}
	return n, nil
}

// SweepAll runs Sweep on every locked key.
func (m *Manager) SweepAll(ctx context.Context) (int, error) {
	keys, err := m.Keys(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, k := range keys {
		n, err := m.Sweep(ctx, k)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

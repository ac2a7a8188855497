// Package queue is a job queue over a store.ObjectStore.
//
// A job lives under exactly one of pending/<id>, queued/<id> or
// finished/<id>. Get moves a randomly chosen pending job to queued while
// holding the per-id lock from package lock. The move is a write followed
// by a delete and is not atomic: a crash between the two leaves the job in
// both locations, and a later Get may hand it out again.
package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"bucketq/internal/lock"
	"bucketq/internal/logging"
	"bucketq/internal/model"
	"bucketq/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrJobNotFound = errors.New("queue: job not found")

const (
	DefaultPollInterval = time.Second
	fetchConcurrency    = 8
)

type Option func(*Queue)

// WithPollInterval sets how long a blocking Get sleeps between checks.
func WithPollInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.poll = d
		}
	}
}

// WithLocks replaces the lock manager. It must wrap the same store.
func WithLocks(m *lock.Manager) Option {
	return func(q *Queue) { q.locks = m }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(q *Queue) { q.log = l }
}

type Queue struct {
	st    store.ObjectStore
	locks *lock.Manager
	poll  time.Duration
	log   logrus.FieldLogger
}

func New(st store.ObjectStore, opts ...Option) *Queue {
	q := &Queue{st: st, poll: DefaultPollInterval, log: logging.Discard()}
	for _, o := range opts {
		o(q)
	}
	if q.locks == nil {
		q.locks = lock.New(st, lock.WithLogger(q.log))
	}
	return q
}

// Put stores body as a pending job and withdraws the id from the queued
// and finished states. An empty id gets a fresh UUID.
func (q *Queue) Put(ctx context.Context, body, id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := q.st.Put(ctx, model.StatePending.Key(id), body); err != nil {
		return "", fmt.Errorf("queue: put %s: %w", id, err)
	}
	for _, s := range []model.State{model.StateQueued, model.StateFinished} {
		if err := q.st.Delete(ctx, s.Key(id)); err != nil {
			return "", fmt.Errorf("queue: put %s: clear %s: %w", id, s, err)
		}
	}
	q.log.WithField("job_id", id).Debug("job pending")
	return id, nil
}

type GetOptions struct {
	// Block polls until a job becomes eligible or ctx is done.
	Block bool
	// Forced consumes the job without recording it as queued.
	Forced bool
	// MaxQueued, when positive, makes Get wait while that many jobs are
	// already queued.
	MaxQueued int
}

// Get takes one pending job. It returns nil when nothing is eligible and
// opts.Block is false. A forced job is returned with an empty State since
// it no longer exists anywhere in the store.
//
// Losing the lock on the chosen id restarts Get at once, without waiting
// for the poll interval. A non-blocking Get therefore spins for as long as
// every pending job stays locked.
func (q *Queue) Get(ctx context.Context, opts GetOptions) (*model.Job, error) {
	for {
		ids, err := q.eligible(ctx, opts.MaxQueued)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			if !opts.Block {
				return nil, nil
			}
			q.log.WithField("poll", q.poll).Debug("no eligible job, waiting")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(q.poll):
			}
			continue
		}

		id := ids[rand.Intn(len(ids))]
		job, err := q.take(ctx, id, opts.Forced)
		if err != nil {
			return nil, err
		}
		if job != nil {
			return job, nil
		}
		// contended or already taken: choose again right away
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// eligible returns the pending ids, or none while the queued limit is hit.
func (q *Queue) eligible(ctx context.Context, maxQueued int) ([]string, error) {
	ids, err := q.IDs(ctx, model.StatePending)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	if maxQueued > 0 {
		queued, err := q.IDs(ctx, model.StateQueued)
		if err != nil {
			return nil, err
		}
		if len(queued) >= maxQueued {
			return nil, nil
		}
	}
	return ids, nil
}

func (q *Queue) take(ctx context.Context, id string, forced bool) (*model.Job, error) {
	var job *model.Job
	held, err := q.locks.WithLock(ctx, id, func(ctx context.Context) error {
		body, ok, err := q.st.Get(ctx, model.StatePending.Key(id))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		state := model.State("")
		if !forced {
			if err := q.st.Put(ctx, model.StateQueued.Key(id), body); err != nil {
				return err
			}
			state = model.StateQueued
		}
		if err := q.st.Delete(ctx, model.StatePending.Key(id)); err != nil {
			return err
		}
		job = &model.Job{ID: id, Body: body, State: state}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("queue: get %s: %w", id, err)
	}
	if !held {
		q.log.WithField("job_id", id).Debug("job locked by another consumer")
		return nil, nil
	}
	if job != nil {
		q.log.WithFields(logrus.Fields{"job_id": id, "forced": forced}).Info("job taken")
	}
	return job, nil
}

// Reput moves a queued job back to pending.
func (q *Queue) Reput(ctx context.Context, id string) error {
	body, ok, err := q.st.Get(ctx, model.StateQueued.Key(id))
	if err != nil {
		return fmt.Errorf("queue: reput %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not queued", ErrJobNotFound, id)
	}
	if _, err := q.Put(ctx, body, id); err != nil {
		return err
	}
	q.log.WithField("job_id", id).Info("job reput")
	return nil
}

// ReputAll moves every queued job back to pending and returns their ids.
func (q *Queue) ReputAll(ctx context.Context) ([]string, error) {
	jobs, err := q.Queued(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(jobs))
	for id, body := range jobs {
		if _, err := q.Put(ctx, body, id); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	q.log.WithField("count", len(ids)).Info("queued jobs reput")
	return ids, nil
}

// Finish records a queued job as finished.
func (q *Queue) Finish(ctx context.Context, id string) error {
	body, ok, err := q.st.Get(ctx, model.StateQueued.Key(id))
	if err != nil {
		return fmt.Errorf("queue: finish %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not queued", ErrJobNotFound, id)
	}
	if err := q.st.Put(ctx, model.StateFinished.Key(id), body); err != nil {
		return fmt.Errorf("queue: finish %s: %w", id, err)
	}
	if err := q.st.Delete(ctx, model.StateQueued.Key(id)); err != nil {
		return fmt.Errorf("queue: finish %s: %w", id, err)
	}
	q.log.WithField("job_id", id).Info("job finished")
	return nil
}

// Delete removes id from every state. Unknown ids are ignored.
func (q *Queue) Delete(ctx context.Context, id string) error {
	for _, s := range model.States {
		if err := q.st.Delete(ctx, s.Key(id)); err != nil {
			return fmt.Errorf("queue: delete %s: %w", id, err)
		}
	}
	return nil
}

// IDs lists the ids currently in state s.
func (q *Queue) IDs(ctx context.Context, s model.State) ([]string, error) {
	ids, err := q.st.List(ctx, s.Prefix())
	if err != nil {
		return nil, fmt.Errorf("queue: list %s: %w", s, err)
	}
	return ids, nil
}

func (q *Queue) Pending(ctx context.Context) (map[string]string, error) {
	return q.snapshot(ctx, model.StatePending)
}

func (q *Queue) Queued(ctx context.Context) (map[string]string, error) {
	return q.snapshot(ctx, model.StateQueued)
}

func (q *Queue) Finished(ctx context.Context) (map[string]string, error) {
	return q.snapshot(ctx, model.StateFinished)
}

// snapshot reads every body in state s. It is not atomic: ids that vanish
// between the listing and the read are left out.
func (q *Queue) snapshot(ctx context.Context, s model.State) (map[string]string, error) {
	ids, err := q.IDs(ctx, s)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	out := make(map[string]string, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			body, ok, err := q.st.Get(gctx, s.Key(id))
			if err != nil {
				return fmt.Errorf("queue: read %s: %w", s.Key(id), err)
			}
			if ok {
				mu.Lock()
				out[id] = body
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Size returns the number of pending jobs.
func (q *Queue) Size(ctx context.Context) (int, error) {
	ids, err := q.IDs(ctx, model.StatePending)
	return len(ids), err
}

// Stats counts the jobs in each state.
func (q *Queue) Stats(ctx context.Context) (map[model.State]int, error) {
	out := make(map[model.State]int, len(model.States))
	for _, s := range model.States {
		ids, err := q.IDs(ctx, s)
		if err != nil {
			return nil, err
		}
		out[s] = len(ids)
	}
	return out, nil
}

// Drop deletes every job in every state.
func (q *Queue) Drop(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, s := range model.States {
		s := s
		ids, err := q.IDs(ctx, s)
		if err != nil {
			return err
		}
		for _, id := range ids {
			id := id
			g.Go(func() error {
				if err := q.st.Delete(gctx, s.Key(id)); err != nil {
					return fmt.Errorf("queue: drop %s: %w", s.Key(id), err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	q.log.Info("queue dropped")
	return nil
}

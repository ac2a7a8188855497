package cli

import (
	"context"
	"fmt"

	"bucketq/internal/config"
	"bucketq/internal/lock"
	"bucketq/internal/logging"
	"bucketq/internal/meta"
	"bucketq/internal/queue"
	"bucketq/internal/store"

	"github.com/sirupsen/logrus"
)

// App carries the components a command needs. The root command fills it
// in before any subcommand runs.
type App struct {
	ConfigPath string
	StoreURL   string
	LogLevel   string

	Config *config.Config
	Log    *logrus.Logger
	Store  store.ObjectStore
	Locks  *lock.Manager
	Queue  *queue.Queue
	Meta   *meta.Store

	closers []func()
}

// Load reads configuration and builds the logger.
func (a *App) Load() error {
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.StoreURL != "" {
		cfg.Set("store.url", a.StoreURL)
	}
	if a.LogLevel != "" {
		cfg.Set("logger.level", a.LogLevel)
	}
	a.Config = cfg

	log, cleanup, err := logging.New(cfg.Logger)
	if err != nil {
		return err
	}
	a.Log = log
	a.closers = append(a.closers, cleanup)
	return nil
}

// Open connects to the configured store and wires the queue, lock and
// metadata components on top of it.
func (a *App) Open(ctx context.Context) error {
	st, err := store.Open(ctx, a.Config.Store.URL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, func() { _ = st.Close() })
	a.Store = st

	log := a.Log
	a.Locks = lock.New(st,
		lock.WithTTL(a.Config.Lock.TTL),
		lock.WithOwner(a.Config.Lock.Owner),
		lock.WithLogger(log),
	)
	a.Queue = queue.New(st,
		queue.WithLocks(a.Locks),
		queue.WithPollInterval(a.Config.Queue.PollInterval),
		queue.WithLogger(log),
	)
	a.Meta = meta.New(st,
		meta.WithSquashThreshold(a.Config.Meta.SquashThreshold),
		meta.WithLogger(log),
	)
	return nil
}

// Close releases everything Load and Open acquired, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

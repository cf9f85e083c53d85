// Package daemon ties the scheduler, the stuck-item sweep, and the queue
// watcher into a single lifecycle with flock-based locking to prevent
// multiple instances from sharing one database.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"greenhouse/internal/config"
	"greenhouse/internal/logging"
	"greenhouse/internal/queue"
	"greenhouse/internal/scheduler"
)

type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	sched  *scheduler.Scheduler

	lockPath string
	lock     *flock.Flock

	sweepInterval time.Duration
	watchInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, sched *scheduler.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || sched == nil {
		return nil, errors.New("daemon requires config, store, and scheduler")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		store:         store,
		sched:         sched,
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
		sweepInterval: time.Duration(cfg.Scheduler.StuckSweepMinutes) * time.Minute,
		watchInterval: time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second,
	}, nil
}

// Start acquires the daemon lock and launches the scheduler and its
// background tickers.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another greenhouse daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.sched.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start scheduler: %w", err)
	}
	d.cancel = cancel

	d.wg.Add(2)
	go d.runSweep(runCtx)
	go d.runWatcher(runCtx)

	d.running = true
	d.logger.Info("greenhouse daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the daemon lock. Safe to call
// concurrently and repeatedly; only the first caller tears down.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	d.sched.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("greenhouse daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// runSweep periodically requeues items abandoned by a crashed or hung
// worker. RetryStuck wakes the dispatch loop when it finds any.
func (d *Daemon) runSweep(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.sched.RetryStuck(ctx); err != nil {
				d.logger.Error("stuck item sweep", logging.Error(err))
			}
		}
	}
}

// runWatcher wakes the dispatch loop when due pending items exist but the
// loop has gone idle. Covers work enqueued by the CLI from another process,
// which writes the shared database without being able to kick in-process.
func (d *Daemon) runWatcher(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.sched.LoopRunning() {
				continue
			}
			counts, err := d.store.Counts(ctx)
			if err != nil {
				d.logger.Error("watch queue counts", logging.Error(err))
				continue
			}
			if counts.Pending > 0 {
				d.sched.Kick()
			}
		}
	}
}

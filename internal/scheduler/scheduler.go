// Package scheduler runs the image-generation queue: it claims due work
// items under a concurrency ceiling, drives the provider, repairs stuck
// items, and keeps terminal history trimmed.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"greenhouse/internal/config"
	"greenhouse/internal/generator"
	"greenhouse/internal/logging"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

// Scheduler coordinates dispatch, processing, and maintenance over the
// shared queue store. All cross-goroutine coordination lives in the
// database; the scheduler itself only tracks whether its loop is running.
type Scheduler struct {
	cfg    *config.Config
	store  *queue.Store
	plants *plants.Store
	gen    generator.Generator
	logger *slog.Logger

	itemDelay      time.Duration
	pollInterval   time.Duration
	errorRetry     time.Duration
	emptyPollLimit int
	stuckTimeout   time.Duration
	retention      time.Duration
	keepRecent     int
	maintainEvery  int
	maxConcurrent  int
	maxRetries     int

	now func() time.Time

	mu          sync.Mutex
	baseCtx     context.Context
	cancel      context.CancelFunc
	started     bool
	loopRunning bool
	wg          sync.WaitGroup

	active      atomic.Int32
	completions atomic.Int64
}

// Option overrides a Scheduler setting. Used by tests to shrink timings.
type Option func(*Scheduler)

// WithItemDelay overrides the spacing between a batch's scheduled_for times.
func WithItemDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.itemDelay = d }
}

// WithPollInterval overrides the pause between claim attempts.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.pollInterval = d }
}

// WithErrorRetry overrides the pause after a store error in the loop.
func WithErrorRetry(d time.Duration) Option {
	return func(s *Scheduler) { s.errorRetry = d }
}

// WithEmptyPollLimit overrides how many consecutive empty polls end the loop.
func WithEmptyPollLimit(n int) Option {
	return func(s *Scheduler) { s.emptyPollLimit = n }
}

// WithStuckTimeout overrides how long a processing item may run before the
// sweep treats it as abandoned.
func WithStuckTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.stuckTimeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New constructs a scheduler from configuration. gen performs the actual
// image generation; tests pass a generator.Func.
func New(cfg *config.Config, store *queue.Store, plantStore *plants.Store, gen generator.Generator, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg:            cfg,
		store:          store,
		plants:         plantStore,
		gen:            gen,
		logger:         logging.NewComponentLogger(logger, "scheduler"),
		itemDelay:      time.Duration(cfg.Scheduler.ItemDelaySeconds) * time.Second,
		pollInterval:   time.Duration(cfg.Scheduler.PollIntervalSeconds) * time.Second,
		errorRetry:     time.Duration(cfg.Scheduler.ErrorRetrySeconds) * time.Second,
		emptyPollLimit: cfg.Scheduler.EmptyPollLimit,
		stuckTimeout:   time.Duration(cfg.Scheduler.StuckTimeoutMinutes) * time.Minute,
		retention:      time.Duration(cfg.Scheduler.RetentionHours) * time.Hour,
		keepRecent:     cfg.Scheduler.KeepRecent,
		maintainEvery:  cfg.Scheduler.MaintenanceEvery,
		maxConcurrent:  cfg.Scheduler.MaxConcurrent,
		maxRetries:     cfg.Scheduler.MaxRetries,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue replaces any pending items for the plant with a fresh batch, one
// item per image kind, spaced itemDelay apart, and wakes the loop. Items
// already processing are left alone. The plant moves to queued.
func (s *Scheduler) Enqueue(ctx context.Context, plantID int64, priority int) ([]*queue.Item, error) {
	plant, err := s.plants.GetByID(ctx, plantID)
	if err != nil {
		return nil, err
	}
	if plant == nil {
		return nil, plants.ErrNotFound
	}

	// The owner moves to queued before the batch exists. Items become
	// claimable the moment they are inserted, and a worker's generating
	// write must not race a later queued write from this call.
	if err := s.plants.SetImageStatus(ctx, plantID, plants.ImageQueued, ""); err != nil {
		return nil, err
	}
	items, err := s.store.EnqueueBatch(ctx, plantID, priority, s.now().UTC(), s.itemDelay, s.maxRetries)
	if err != nil {
		return nil, err
	}
	s.logger.Info("batch enqueued",
		logging.Int64(logging.FieldPlantID, plantID),
		logging.Int("items", len(items)),
		logging.Int("priority", priority))
	s.Kick()
	return items, nil
}

// RetryStuck requeues processing items that started before the stuck
// timeout and wakes the loop when any were found.
func (s *Scheduler) RetryStuck(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.stuckTimeout)
	requeued, err := s.store.RequeueStuck(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if requeued > 0 {
		s.logger.Warn("stuck items requeued", logging.Int64("count", requeued))
		s.Kick()
	}
	return requeued, nil
}

// CleanupOld deletes terminal items older than the retention window while
// keeping the most recent ones for the activity feed.
func (s *Scheduler) CleanupOld(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	removed, err := s.store.CleanupOld(ctx, cutoff, s.keepRecent)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("old items cleaned up", logging.Int64("removed", removed))
	}
	return removed, nil
}

// ClearCompletedAndFailed deletes every terminal item regardless of age.
func (s *Scheduler) ClearCompletedAndFailed(ctx context.Context) (int64, error) {
	removed, err := s.store.ClearTerminal(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("terminal items cleared", logging.Int64("removed", removed))
	return removed, nil
}

// ActiveWorkers reports how many items are being processed right now.
func (s *Scheduler) ActiveWorkers() int {
	return int(s.active.Load())
}

// LoopRunning reports whether the dispatch loop is currently alive.
func (s *Scheduler) LoopRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopRunning
}

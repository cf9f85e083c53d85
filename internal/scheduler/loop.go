package scheduler

import (
	"context"
	"time"

	"greenhouse/internal/logging"
)

// Start prepares the scheduler and wakes the loop if due work already
// exists. The loop itself starts and stops on demand: it exits after a run
// of empty polls and is restarted by Enqueue, RetryStuck, or Kick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.mu.Unlock()

	s.logger.Info("scheduler started",
		logging.Int("max_concurrent", s.maxConcurrent),
		logging.Duration("item_delay", s.itemDelay),
		logging.Duration("poll_interval", s.pollInterval))
	s.Kick()
	return nil
}

// Stop cancels the loop and any in-flight workers and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Kick starts the dispatch loop unless it is already running. Safe to call
// from any goroutine; extra kicks while the loop runs are no-ops.
func (s *Scheduler) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.loopRunning {
		return
	}
	s.loopRunning = true
	ctx := s.baseCtx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.loopRunning = false
			s.mu.Unlock()
		}()
		s.runLoop(ctx)
	}()
}

// runLoop claims due items until the queue stays empty for emptyPollLimit
// consecutive polls, then exits to avoid idle churn against the database.
func (s *Scheduler) runLoop(ctx context.Context) {
	s.logger.Debug("dispatch loop running")
	emptyPolls := 0
	for {
		if ctx.Err() != nil {
			return
		}
		if int(s.active.Load()) >= s.maxConcurrent {
			if !s.sleep(ctx, s.pollInterval) {
				return
			}
			continue
		}

		item, err := s.store.ClaimNextDue(ctx, s.now().UTC())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("claim next item", logging.Error(err))
			if !s.sleep(ctx, s.errorRetry) {
				return
			}
			continue
		}
		if item == nil {
			emptyPolls++
			if emptyPolls >= s.emptyPollLimit {
				s.logger.Debug("dispatch loop idle, exiting",
					logging.Int("empty_polls", emptyPolls))
				return
			}
			if !s.sleep(ctx, s.pollInterval) {
				return
			}
			continue
		}

		emptyPolls = 0
		s.dispatch(ctx, item)
		// Minimum spacing between dispatches, independent of the
		// scheduled_for stagger. The provider throttles bursts.
		if !s.sleep(ctx, s.itemDelay) {
			return
		}
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

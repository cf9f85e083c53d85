package daemon_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"greenhouse/internal/config"
	"greenhouse/internal/daemon"
	"greenhouse/internal/generator"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
	"greenhouse/internal/scheduler"
	"greenhouse/internal/testsupport"
)

func fastConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	// Watch interval derives from poll_interval_seconds; one second is the
	// smallest the config allows.
	cfg.Scheduler.PollIntervalSeconds = 1
	return cfg
}

func fastScheduler(cfg *config.Config, store *queue.Store, plantStore *plants.Store) *scheduler.Scheduler {
	gen := generator.Func(func(ctx context.Context, prompt string, aspect generator.AspectRatio) (string, error) {
		return "/images/ok.png", nil
	})
	return scheduler.New(cfg, store, plantStore, gen, nil,
		scheduler.WithItemDelay(0),
		scheduler.WithPollInterval(5*time.Millisecond),
		scheduler.WithEmptyPollLimit(2),
	)
}

func TestStartRejectsSecondInstance(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)

	first, err := daemon.New(cfg, store, fastScheduler(cfg, store, plantStore), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, store, fastScheduler(cfg, store, plantStore), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be rejected by the lock")
	}
}

func TestStopReleasesLock(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)

	d, err := daemon.New(cfg, store, fastScheduler(cfg, store, plantStore), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Stop()

	restarted, err := daemon.New(cfg, store, fastScheduler(cfg, store, plantStore), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := restarted.Start(ctx); err != nil {
		t.Fatalf("expected restart after Stop, got %v", err)
	}
	restarted.Stop()
}

func TestConcurrentStopIsSafe(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)

	d, err := daemon.New(cfg, store, fastScheduler(cfg, store, plantStore), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Stop()
		}()
	}
	wg.Wait()

	// Teardown ran exactly once and released the lock, so a restart works.
	restarted, err := daemon.New(cfg, store, fastScheduler(cfg, store, plantStore), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := restarted.Start(ctx); err != nil {
		t.Fatalf("expected restart after concurrent stops, got %v", err)
	}
	restarted.Stop()
}

func TestWatcherPicksUpExternalEnqueue(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	plant := testsupport.NewPlant(t, plantStore, "Monstera")

	d, err := daemon.New(cfg, store, fastScheduler(cfg, store, plantStore), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	// Simulate a CLI in another process: write the batch straight to the
	// store, without kicking the scheduler.
	if _, err := store.EnqueueBatch(ctx, plant.ID, 0, time.Now().UTC(), 0, 2); err != nil {
		t.Fatalf("EnqueueBatch failed: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		counts, err := store.Counts(ctx)
		if err != nil {
			t.Fatalf("Counts failed: %v", err)
		}
		if counts.Completed == counts.Total && counts.Total > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher never dispatched the externally enqueued batch")
}

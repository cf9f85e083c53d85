package status_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"greenhouse/internal/queue"
	"greenhouse/internal/status"
	"greenhouse/internal/testsupport"
)

func TestGenerationStatusAggregates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	agg := status.NewAggregator(store, plantStore)

	ctx := context.Background()
	plant := testsupport.NewPlant(t, plantStore, "monstera")
	now := time.Now().UTC()
	items, err := store.EnqueueBatch(ctx, plant.ID, 0, now, 0, 2)
	if err != nil {
		t.Fatalf("EnqueueBatch failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, items[0].ID, "/images/a.png"); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if err := store.MarkFailed(ctx, items[1].ID, "provider timeout"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	report, err := agg.GenerationStatus(ctx)
	if err != nil {
		t.Fatalf("GenerationStatus failed: %v", err)
	}
	if report.Plants.Plants != 1 {
		t.Fatalf("expected 1 plant in totals, got %d", report.Plants.Plants)
	}
	if report.Queue.Completed != 1 || report.Queue.Failed != 1 || report.Queue.Pending != 1 {
		t.Fatalf("unexpected queue counts: %+v", report.Queue)
	}
	if len(report.Activity) != 2 {
		t.Fatalf("expected 2 activity lines, got %d", len(report.Activity))
	}
	var sawCompleted, sawFailed bool
	for _, entry := range report.Activity {
		if !strings.HasPrefix(entry.Message, "Monstera ") {
			t.Fatalf("expected title-cased plant name in %q", entry.Message)
		}
		if strings.Contains(entry.Message, "completed") {
			sawCompleted = true
		}
		if strings.Contains(entry.Message, "failed: provider timeout") {
			sawFailed = true
		}
	}
	if !sawCompleted || !sawFailed {
		t.Fatalf("activity feed missing entries: %+v", report.Activity)
	}
}

func TestQueueStatusPositionsMatchDispatchOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	agg := status.NewAggregator(store, plantStore)

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	low := testsupport.NewPlant(t, plantStore, "Low")
	if _, err := store.EnqueueBatch(ctx, low.ID, 0, base, 0, 2); err != nil {
		t.Fatalf("enqueue low: %v", err)
	}
	high := testsupport.NewPlant(t, plantStore, "High")
	if _, err := store.EnqueueBatch(ctx, high.ID, 5, base, 0, 2); err != nil {
		t.Fatalf("enqueue high: %v", err)
	}

	report, err := agg.QueueStatus(ctx)
	if err != nil {
		t.Fatalf("QueueStatus failed: %v", err)
	}
	if len(report.Entries) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(report.Entries))
	}

	positions := make(map[int64]int)
	for _, entry := range report.Entries {
		if entry.Position > 0 {
			positions[entry.ID] = entry.Position
		}
	}

	// Position 1 must be the item the scheduler would claim next.
	claimed, err := store.ClaimNextDue(ctx, base.Add(time.Second))
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNextDue failed: item=%v err=%v", claimed, err)
	}
	if positions[claimed.ID] != 1 {
		t.Fatalf("expected claimed item at position 1, got %d", positions[claimed.ID])
	}
	if claimed.PlantID != high.ID {
		t.Fatalf("expected high-priority plant first, got plant %d", claimed.PlantID)
	}
}

func TestQueueStatusProgressForProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	agg := status.NewAggregator(store, plantStore)

	ctx := context.Background()
	plant := testsupport.NewPlant(t, plantStore, "Fern")
	now := time.Now().UTC()
	if _, err := store.EnqueueBatch(ctx, plant.ID, 0, now.Add(-time.Minute), 0, 2); err != nil {
		t.Fatalf("EnqueueBatch failed: %v", err)
	}
	claimed, err := store.ClaimNextDue(ctx, now)
	if err != nil || claimed == nil {
		t.Fatalf("ClaimNextDue failed: item=%v err=%v", claimed, err)
	}

	report, err := agg.QueueStatus(ctx)
	if err != nil {
		t.Fatalf("QueueStatus failed: %v", err)
	}
	for _, entry := range report.Entries {
		switch entry.Status {
		case queue.StatusProcessing:
			if entry.Progress != "1/3" {
				t.Fatalf("expected progress 1/3 for first kind, got %q", entry.Progress)
			}
			if entry.Position != 0 {
				t.Fatalf("processing items have no queue position, got %d", entry.Position)
			}
		case queue.StatusPending:
			if entry.Position == 0 {
				t.Fatal("pending items must have a queue position")
			}
			if entry.Progress != "" {
				t.Fatalf("pending items have no progress, got %q", entry.Progress)
			}
		}
	}
}

func TestQueueStatusKeepsNameForDeletedPlant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	agg := status.NewAggregator(store, plantStore)

	ctx := context.Background()
	plant := testsupport.NewPlant(t, plantStore, "Ghost")
	now := time.Now().UTC()
	if _, err := store.EnqueueBatch(ctx, plant.ID, 0, now, 0, 2); err != nil {
		t.Fatalf("EnqueueBatch failed: %v", err)
	}
	if _, err := plantStore.Delete(ctx, plant.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	report, err := agg.QueueStatus(ctx)
	if err != nil {
		t.Fatalf("QueueStatus failed: %v", err)
	}
	for _, entry := range report.Entries {
		if entry.PlantName != "" {
			t.Fatalf("expected empty plant name for deleted plant, got %q", entry.PlantName)
		}
	}
}

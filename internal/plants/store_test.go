package plants_test

import (
	"context"
	"testing"

	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
	"greenhouse/internal/testsupport"
)

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)

	ctx := context.Background()
	plant, err := plantStore.Create(ctx, "Monstera", "Monstera deliciosa", "Split leaves")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if plant.ID == 0 {
		t.Fatal("expected plant ID to be assigned")
	}
	if plant.ImageStatus != plants.ImagePending {
		t.Fatalf("expected pending image status, got %s", plant.ImageStatus)
	}

	fetched, err := plantStore.GetByID(ctx, plant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Name != "Monstera" || fetched.Species != "Monstera deliciosa" {
		t.Fatalf("unexpected plant: %+v", fetched)
	}

	missing, err := plantStore.GetByID(ctx, plant.ID+100)
	if err != nil {
		t.Fatalf("GetByID missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing plant, got %+v", missing)
	}
}

func TestCreateRequiresName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)

	if _, err := plantStore.Create(context.Background(), "", "", ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestSetKindResultFillsSlots(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	plant := testsupport.NewPlant(t, plantStore, "Pothos")

	ctx := context.Background()
	if err := plantStore.SetKindResult(ctx, plant.ID, queue.KindThumbnail, "/images/t.png"); err != nil {
		t.Fatalf("SetKindResult thumbnail failed: %v", err)
	}
	if err := plantStore.SetKindResult(ctx, plant.ID, queue.KindFull, "/images/f.png"); err != nil {
		t.Fatalf("SetKindResult full failed: %v", err)
	}
	if err := plantStore.SetKindResult(ctx, plant.ID, queue.KindDetail, "/images/d.png"); err != nil {
		t.Fatalf("SetKindResult detail failed: %v", err)
	}

	fetched, err := plantStore.GetByID(ctx, plant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !fetched.HasAllImages() {
		t.Fatalf("expected all image slots filled: %+v", fetched)
	}
	if fetched.ThumbnailPath != "/images/t.png" || fetched.FullPath != "/images/f.png" || fetched.DetailPath != "/images/d.png" {
		t.Fatalf("unexpected result paths: %+v", fetched)
	}
}

func TestMarkGenerationFailedIncrementsAttempts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	plant := testsupport.NewPlant(t, plantStore, "Orchid")

	ctx := context.Background()
	if err := plantStore.MarkGenerationFailed(ctx, plant.ID, "provider timeout"); err != nil {
		t.Fatalf("MarkGenerationFailed failed: %v", err)
	}
	if err := plantStore.MarkGenerationFailed(ctx, plant.ID, "provider timeout again"); err != nil {
		t.Fatalf("second MarkGenerationFailed failed: %v", err)
	}

	fetched, err := plantStore.GetByID(ctx, plant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ImageStatus != plants.ImageFailed {
		t.Fatalf("expected failed status, got %s", fetched.ImageStatus)
	}
	if fetched.ImageError != "provider timeout again" {
		t.Fatalf("unexpected image error: %q", fetched.ImageError)
	}
	if fetched.GenerationAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", fetched.GenerationAttempts)
	}
}

func TestImageTotals(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)

	ctx := context.Background()
	complete := testsupport.NewPlant(t, plantStore, "Complete")
	for _, kind := range queue.AllKinds() {
		if err := plantStore.SetKindResult(ctx, complete.ID, kind, "/images/"+string(kind)+".png"); err != nil {
			t.Fatalf("SetKindResult failed: %v", err)
		}
	}
	partial := testsupport.NewPlant(t, plantStore, "Partial")
	if err := plantStore.SetKindResult(ctx, partial.ID, queue.KindThumbnail, "/images/p.png"); err != nil {
		t.Fatalf("SetKindResult failed: %v", err)
	}
	testsupport.NewPlant(t, plantStore, "Bare")

	totals, err := plantStore.ImageTotals(ctx)
	if err != nil {
		t.Fatalf("ImageTotals failed: %v", err)
	}
	if totals.Plants != 3 || totals.WithAllImages != 1 || totals.WithoutImages != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	plantStore := testsupport.NewPlantStore(t, store)
	plant := testsupport.NewPlant(t, plantStore, "Temporary")

	ctx := context.Background()
	deleted, err := plantStore.Delete(ctx, plant.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report a removed row")
	}
	deleted, err = plantStore.Delete(ctx, plant.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if deleted {
		t.Fatal("expected second delete to be a no-op")
	}
}

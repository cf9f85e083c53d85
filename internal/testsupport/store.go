package testsupport

import (
	"context"
	"database/sql"
	"testing"

	"greenhouse/internal/config"
	"greenhouse/internal/plants"
	"greenhouse/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPlantStore wraps the queue store's database handle for plant access.
func NewPlantStore(t testing.TB, store *queue.Store) *plants.Store {
	t.Helper()
	return plants.NewStore(store.DB())
}

// NewPlant creates a plant record for tests using the provided store.
func NewPlant(t testing.TB, plantStore *plants.Store, name string) *plants.Plant {
	t.Helper()

	plant, err := plantStore.Create(context.Background(), name, "", "")
	if err != nil {
		t.Fatalf("plants.Create: %v", err)
	}
	return plant
}

// Exec runs a raw statement against the store's database. Tests use it to
// backdate timestamps that the store APIs always set to now.
func Exec(t testing.TB, db *sql.DB, query string, args ...any) {
	t.Helper()

	if _, err := db.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

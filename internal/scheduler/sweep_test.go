package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"furbabies_backend/internal/storage"
	"furbabies_backend/platform/logger"
)

type staticKeys struct {
	keys []string
	err  error
}

func (s staticKeys) ListAllObjectKeys(context.Context) ([]string, error) {
	return s.keys, s.err
}

func put(t *testing.T, store *storage.MemoryStore, key string, age time.Duration) {
	t.Helper()
	if err := store.Put(context.Background(), key, []byte("img"), storage.PutOptions{}); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
	store.SetCreatedAt(key, time.Now().Add(-age))
}

func TestSweepDeletesOnlyStaleOrphans(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	put(t, store, "pets/referenced.jpg", 48*time.Hour)
	put(t, store, "pets/thumbnails/thumb-referenced.jpg", 48*time.Hour)
	put(t, store, "pets/stale-orphan.jpg", 48*time.Hour)
	put(t, store, "pets/fresh-orphan.jpg", time.Minute)
	put(t, store, "avatars/other-folder.jpg", 48*time.Hour)

	keys := staticKeys{keys: []string{
		"pets/referenced.jpg",
		"pets/thumbnails/thumb-referenced.jpg",
	}}
	sweeper := NewSweeper(store, keys, 24*time.Hour, logger.New("development"))

	deleted, err := sweeper.Sweep(context.Background(), "pets")
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", deleted)
	}

	if store.Has("pets/stale-orphan.jpg") {
		t.Error("stale orphan should be deleted")
	}
	if !store.Has("pets/referenced.jpg") || !store.Has("pets/thumbnails/thumb-referenced.jpg") {
		t.Error("referenced objects must survive the sweep")
	}
	if !store.Has("pets/fresh-orphan.jpg") {
		t.Error("objects inside the grace period must survive the sweep")
	}
	if !store.Has("avatars/other-folder.jpg") {
		t.Error("objects outside the folder must not be touched")
	}
}

func TestSweepToleratesDeleteFailures(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	put(t, store, "pets/orphan-a.jpg", 48*time.Hour)
	put(t, store, "pets/orphan-b.jpg", 48*time.Hour)
	store.FailDelete = func(key string) error {
		if key == "pets/orphan-a.jpg" {
			return errors.New("transient")
		}
		return nil
	}

	sweeper := NewSweeper(store, staticKeys{}, time.Hour, logger.New("development"))

	deleted, err := sweeper.Sweep(context.Background(), "pets")
	if err != nil {
		t.Fatalf("sweep should not fail on individual deletes: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 successful deletion, got %d", deleted)
	}
	if !store.Has("pets/orphan-a.jpg") || store.Has("pets/orphan-b.jpg") {
		t.Error("only the failing key should remain")
	}
}

func TestSweepFailsWhenReferencesUnavailable(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	put(t, store, "pets/orphan.jpg", 48*time.Hour)

	sweeper := NewSweeper(store, staticKeys{err: errors.New("db down")}, time.Hour, logger.New("development"))

	if _, err := sweeper.Sweep(context.Background(), "pets"); err == nil {
		t.Fatal("sweep must not delete anything when the reference listing fails")
	}
	if !store.Has("pets/orphan.jpg") {
		t.Error("nothing may be deleted without a reference listing")
	}
}

func TestSweepRequiresFolder(t *testing.T) {
	sweeper := NewSweeper(storage.NewMemoryStore("pet-images"), staticKeys{}, time.Hour, logger.New("development"))
	if _, err := sweeper.Sweep(context.Background(), ""); err == nil {
		t.Fatal("empty folder must be rejected")
	}
}

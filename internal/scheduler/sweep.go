package scheduler

import (
	"context"
	"fmt"
	"time"

	"furbabies_backend/internal/storage"
	"furbabies_backend/platform/logger"
)

// KeyLister reports every object key still referenced by a listing gallery,
// thumbnails included.
type KeyLister interface {
	ListAllObjectKeys(ctx context.Context) ([]string, error)
}

// Sweeper deletes stored objects that no gallery references anymore. Objects
// younger than the grace period are kept so that in-flight uploads are never
// swept between Put and the gallery write.
type Sweeper struct {
	store storage.ObjectStore
	keys  KeyLister
	grace time.Duration
	log   *logger.Logger
}

// NewSweeper creates a sweeper over the given store and reference source.
func NewSweeper(store storage.ObjectStore, keys KeyLister, grace time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{store: store, keys: keys, grace: grace, log: log}
}

// Sweep removes orphaned objects under folder and returns how many were
// deleted. Individual delete failures are logged and do not abort the sweep.
func (s *Sweeper) Sweep(ctx context.Context, folder string) (int, error) {
	if folder == "" {
		return 0, fmt.Errorf("sweep: folder is required")
	}

	referenced, err := s.keys.ListAllObjectKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep: list referenced keys: %w", err)
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, key := range referenced {
		keep[key] = struct{}{}
	}

	objects, err := s.store.List(ctx, folder+"/", 0)
	if err != nil {
		return 0, fmt.Errorf("sweep: list stored objects: %w", err)
	}

	cutoff := time.Now().Add(-s.grace)
	deleted := 0
	for _, obj := range objects {
		if _, ok := keep[obj.Key]; ok {
			continue
		}
		if obj.CreatedAt.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			s.log.Warn("orphan_delete_failed", "key", obj.Key, "error", err.Error())
			continue
		}
		deleted++
	}

	s.log.Info("orphan_sweep_done",
		"folder", folder,
		"scanned", len(objects),
		"deleted", deleted,
	)
	return deleted, nil
}

package media

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"furbabies_backend/internal/storage"
	"furbabies_backend/platform/apperr"
	"furbabies_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	// batchConcurrency bounds parallel uploads within one batch.
	batchConcurrency = 4

	// Stored keys are content-addressed by timestamp+uuid, so objects are
	// immutable and can be cached aggressively.
	cacheControlImmutable = "public, max-age=31536000, immutable"

	thumbnailSubfolder = "thumbnails"
	thumbnailPrefix    = "thumb-"
)

// File is one upload candidate.
type File struct {
	Data         []byte
	OriginalName string
}

// FileError attributes a batch failure to the file that caused it.
type FileError struct {
	OriginalName string
	Err          error
}

// BatchResult partitions a batch upload's outcome. Succeeded preserves the
// input order of the files that made it.
type BatchResult struct {
	Succeeded []Descriptor
	Failed    []FileError
}

// Manager owns the image asset lifecycle against an object store. It performs
// no authorization; callers gate access before invoking it.
type Manager struct {
	store   storage.ObjectStore
	deriver Deriver
	log     *logger.Logger
	maxSize int64
}

func NewManager(store storage.ObjectStore, deriver Deriver, log *logger.Logger, maxSize int64) *Manager {
	return &Manager{
		store:   store,
		deriver: deriver,
		log:     log,
		maxSize: maxSize,
	}
}

// UploadOne validates, keys, and stores a single image, returning its
// descriptor. The descriptor is returned with IsMain unset; gallery placement
// is the caller's decision. A failed upload leaves no descriptor behind.
func (m *Manager) UploadOne(ctx context.Context, file File, folder, ownerID string) (Descriptor, error) {
	if len(file.Data) == 0 {
		return Descriptor{}, apperr.Validation("file is empty")
	}
	if !HasAllowedExtension(file.OriginalName) {
		return Descriptor{}, apperr.Validation(fmt.Sprintf("unsupported file type: %s", path.Ext(file.OriginalName)))
	}
	if m.maxSize > 0 && int64(len(file.Data)) > m.maxSize {
		return Descriptor{}, apperr.Validation(fmt.Sprintf("file exceeds maximum size of %d bytes", m.maxSize))
	}

	key, err := GenerateKey(folder, ownerID, file.OriginalName)
	if err != nil {
		return Descriptor{}, err
	}

	contentType := sniffContentType(file.Data, file.OriginalName)

	err = m.store.Put(ctx, key, file.Data, storage.PutOptions{
		ContentType:  contentType,
		CacheControl: cacheControlImmutable,
		PublicRead:   true,
		Metadata: map[string]string{
			"original-name": file.OriginalName,
			"folder":        folder,
			"owner-id":      ownerID,
		},
	})
	if err != nil {
		return Descriptor{}, apperr.Wrap(apperr.KindInternal, fmt.Sprintf("failed to upload %s", file.OriginalName), err)
	}

	m.log.ObjectUploaded(key, int64(len(file.Data)), contentType)

	desc := Descriptor{
		ObjectKey:    key,
		OriginalName: file.OriginalName,
		PublicURL:    m.store.PublicURL(key),
		StoreURI:     m.store.StoreURI(key),
		Bucket:       m.store.Bucket(),
		Size:         int64(len(file.Data)),
		ContentType:  contentType,
		Folder:       folder,
		OwnerID:      ownerID,
		UploadedAt:   time.Now().UTC(),
		TakenAt:      captureTime(file.Data),
	}
	desc.Thumbnail = m.uploadThumbnail(ctx, file, folder, ownerID)
	return desc, nil
}

// uploadThumbnail derives and stores a thumbnail rendition. Any failure is
// logged and swallowed; the original upload stands on its own.
func (m *Manager) uploadThumbnail(ctx context.Context, file File, folder, ownerID string) *ThumbnailRef {
	thumbData := m.deriver.Derive(file.Data)
	if thumbData == nil {
		m.log.ThumbnailSkipped(file.OriginalName, "derivation unavailable")
		return nil
	}

	thumbFolder := folder + "/" + thumbnailSubfolder
	key, err := GenerateKey(thumbFolder, ownerID, thumbnailPrefix+file.OriginalName)
	if err != nil {
		m.log.ThumbnailSkipped(file.OriginalName, err.Error())
		return nil
	}

	err = m.store.Put(ctx, key, thumbData, storage.PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: cacheControlImmutable,
		PublicRead:   true,
	})
	if err != nil {
		m.log.ThumbnailSkipped(file.OriginalName, err.Error())
		return nil
	}

	return &ThumbnailRef{
		ObjectKey: key,
		PublicURL: m.store.PublicURL(key),
	}
}

// UploadBatch uploads files concurrently and reports per-file outcomes.
// The store is probed once up front; if it is unreachable no uploads are
// attempted and the whole batch fails with an unavailable error. One bad file
// never sinks its siblings, and a missing thumbnail never fails a file.
func (m *Manager) UploadBatch(ctx context.Context, files []File, folder, ownerID string) (BatchResult, error) {
	if len(files) == 0 {
		return BatchResult{}, nil
	}

	ok, err := m.store.Exists(ctx)
	if err != nil || !ok {
		return BatchResult{}, apperr.Unavailable("object store is unreachable")
	}

	descs := make([]*Descriptor, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, file := range files {
		g.Go(func() error {
			d, uploadErr := m.UploadOne(gctx, file, folder, ownerID)
			if uploadErr != nil {
				errs[i] = uploadErr
				return nil
			}
			descs[i] = &d
			return nil
		})
	}
	// Workers never return errors; Wait is a join point.
	_ = g.Wait()

	var result BatchResult
	for i, file := range files {
		if errs[i] != nil {
			result.Failed = append(result.Failed, FileError{OriginalName: file.OriginalName, Err: errs[i]})
			continue
		}
		result.Succeeded = append(result.Succeeded, *descs[i])
	}
	return result, nil
}

// SetMain marks the descriptor with objectKey as the gallery's main image and
// clears the flag everywhere else. Pure; persistence is the caller's job.
func (m *Manager) SetMain(gallery Gallery, objectKey string) (Gallery, error) {
	idx, found := gallery.Find(objectKey)
	if !found {
		return nil, apperr.NotFound("image not found")
	}
	for i := range gallery {
		gallery[i].IsMain = i == idx
	}
	return gallery, nil
}

// Remove deletes the descriptor's objects from the store (best effort) and
// drops it from the gallery. If the removed image was main, the first
// remaining image is promoted.
func (m *Manager) Remove(ctx context.Context, gallery Gallery, objectKey string) (Gallery, error) {
	idx, found := gallery.Find(objectKey)
	if !found {
		return nil, apperr.NotFound("image not found")
	}
	removed := gallery[idx]

	m.deleteObject(ctx, removed.ObjectKey)
	if removed.Thumbnail != nil {
		m.deleteObject(ctx, removed.Thumbnail.ObjectKey)
	}

	updated := append(gallery[:idx:idx], gallery[idx+1:]...)
	if removed.IsMain && len(updated) > 0 {
		updated[0].IsMain = true
	}
	return updated, nil
}

// PurgeAll deletes every object the gallery references, fanning out and
// waiting for all deletions. Failures are logged and swallowed; orphaned
// objects are reclaimed later by the sweep job.
func (m *Manager) PurgeAll(ctx context.Context, gallery Gallery) {
	keys := gallery.ObjectKeys()
	if len(keys) == 0 {
		return
	}

	var g errgroup.Group
	for _, key := range keys {
		g.Go(func() error {
			m.deleteObject(ctx, key)
			return nil
		})
	}
	_ = g.Wait()
}

// deleteObject is a best-effort store delete. The store's Delete is
// idempotent, so only transport-level failures surface here.
func (m *Manager) deleteObject(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.log.StorageDeleteFailed(key, err)
	}
}

// sniffContentType detects the content type from the file bytes, falling
// back to the extension map when detection is inconclusive. Client-supplied
// metadata is never trusted.
func sniffContentType(data []byte, originalName string) string {
	detected := http.DetectContentType(data)
	if detected == "application/octet-stream" || !strings.HasPrefix(detected, "image/") {
		return ContentTypeForName(originalName)
	}
	return detected
}

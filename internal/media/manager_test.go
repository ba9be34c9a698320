package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"furbabies_backend/internal/storage"
	"furbabies_backend/platform/apperr"
	"furbabies_backend/platform/logger"
)

// stubDeriver returns a fixed rendition regardless of input.
type stubDeriver struct {
	out []byte
}

func (s stubDeriver) Derive([]byte) []byte { return s.out }

var pngMagic = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func newTestManager(store storage.ObjectStore, deriver Deriver, maxSize int64) *Manager {
	return NewManager(store, deriver, logger.New("development"), maxSize)
}

func TestUploadOneDescriptor(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, stubDeriver{out: []byte("thumb-bytes")}, 0)

	desc, err := mgr.UploadOne(context.Background(), File{Data: pngMagic, OriginalName: "Fluffy Photo.PNG"}, "pets", "pet-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(desc.ObjectKey, "pets/pet-42-") || !strings.HasSuffix(desc.ObjectKey, ".png") {
		t.Errorf("unexpected object key %q", desc.ObjectKey)
	}
	if desc.OriginalName != "Fluffy Photo.PNG" {
		t.Errorf("original name mangled: %q", desc.OriginalName)
	}
	if desc.PublicURL != store.PublicURL(desc.ObjectKey) {
		t.Errorf("public URL mismatch: %q", desc.PublicURL)
	}
	if desc.StoreURI != "s3://pet-images/"+desc.ObjectKey {
		t.Errorf("store URI mismatch: %q", desc.StoreURI)
	}
	if desc.Bucket != "pet-images" {
		t.Errorf("bucket mismatch: %q", desc.Bucket)
	}
	if desc.Size != int64(len(pngMagic)) {
		t.Errorf("size mismatch: %d", desc.Size)
	}
	if desc.ContentType != "image/png" {
		t.Errorf("content type should be sniffed from bytes, got %q", desc.ContentType)
	}
	if desc.IsMain {
		t.Error("fresh descriptors carry no main flag; placement is the caller's call")
	}
	if desc.UploadedAt.IsZero() {
		t.Error("uploadedAt not stamped")
	}
	if desc.TakenAt != nil {
		t.Error("no EXIF data present, takenAt should be nil")
	}

	if desc.Thumbnail == nil {
		t.Fatal("expected a thumbnail ref")
	}
	if !strings.HasPrefix(desc.Thumbnail.ObjectKey, "pets/thumbnails/pet-42-") {
		t.Errorf("thumbnail key %q not under thumbnails subfolder", desc.Thumbnail.ObjectKey)
	}

	if !store.Has(desc.ObjectKey) || !store.Has(desc.Thumbnail.ObjectKey) {
		t.Error("original and thumbnail objects should both be stored")
	}
}

func TestUploadOneSniffFallsBackToExtension(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 0)

	// Bytes that sniff as octet-stream; extension decides.
	desc, err := mgr.UploadOne(context.Background(), File{Data: []byte{0x00, 0x01, 0x02, 0x03}, OriginalName: "raw.webp"}, "pets", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.ContentType != "image/webp" {
		t.Errorf("want extension fallback image/webp, got %q", desc.ContentType)
	}
}

func TestUploadOneValidation(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 16)

	cases := []struct {
		name   string
		file   File
		folder string
	}{
		{"empty file", File{Data: nil, OriginalName: "a.jpg"}, "pets"},
		{"bad extension", File{Data: pngMagic, OriginalName: "script.exe"}, "pets"},
		{"oversize", File{Data: make([]byte, 17), OriginalName: "big.jpg"}, "pets"},
		{"empty folder", File{Data: []byte{1}, OriginalName: "a.jpg"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mgr.UploadOne(context.Background(), tc.file, tc.folder, "pet-1")
			if !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("want validation error, got %v", err)
			}
		})
	}
	if store.Len() != 0 {
		t.Errorf("rejected uploads must not reach the store, found %d objects", store.Len())
	}
}

func TestUploadOneStoreFailure(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	store.FailPut = func(string) error { return errors.New("connection reset") }
	mgr := newTestManager(store, NoopDeriver{}, 0)

	_, err := mgr.UploadOne(context.Background(), File{Data: pngMagic, OriginalName: "a.png"}, "pets", "pet-1")
	if !apperr.Is(err, apperr.KindInternal) {
		t.Errorf("want internal error, got %v", err)
	}
}

func TestUploadOneThumbnailFailureIsNonFatal(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	store.FailPut = func(key string) error {
		if strings.Contains(key, "/thumbnails/") {
			return errors.New("thumbnail write refused")
		}
		return nil
	}
	mgr := newTestManager(store, stubDeriver{out: []byte("thumb")}, 0)

	desc, err := mgr.UploadOne(context.Background(), File{Data: pngMagic, OriginalName: "a.png"}, "pets", "pet-1")
	if err != nil {
		t.Fatalf("thumbnail failure must not fail the upload: %v", err)
	}
	if desc.Thumbnail != nil {
		t.Error("failed thumbnail should leave the ref nil")
	}
	if !store.Has(desc.ObjectKey) {
		t.Error("original object should still be stored")
	}
}

func TestUploadBatchPartialFailure(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 0)

	files := []File{
		{Data: pngMagic, OriginalName: "one.png"},
		{Data: pngMagic, OriginalName: "two.png"},
		{Data: pngMagic, OriginalName: "virus.exe"},
		{Data: pngMagic, OriginalName: "four.png"},
		{Data: pngMagic, OriginalName: "five.png"},
	}

	result, err := mgr.UploadBatch(context.Background(), files, "pets", "pet-3")
	if err != nil {
		t.Fatalf("batch with one bad file must not fail outright: %v", err)
	}

	if len(result.Succeeded) != 4 {
		t.Fatalf("want 4 successes, got %d", len(result.Succeeded))
	}
	// Successes preserve input order.
	wantOrder := []string{"one.png", "two.png", "four.png", "five.png"}
	for i, d := range result.Succeeded {
		if d.OriginalName != wantOrder[i] {
			t.Errorf("position %d: want %s, got %s", i, wantOrder[i], d.OriginalName)
		}
	}

	if len(result.Failed) != 1 {
		t.Fatalf("want 1 failure, got %d", len(result.Failed))
	}
	if result.Failed[0].OriginalName != "virus.exe" {
		t.Errorf("failure attributed to wrong file: %s", result.Failed[0].OriginalName)
	}
	if !apperr.Is(result.Failed[0].Err, apperr.KindValidation) {
		t.Errorf("want validation error, got %v", result.Failed[0].Err)
	}
}

func TestUploadBatchStoreLevelFailureIsolated(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	store.FailPut = func(key string) error {
		if strings.HasSuffix(key, ".gif") {
			return errors.New("write failed")
		}
		return nil
	}
	mgr := newTestManager(store, NoopDeriver{}, 0)

	files := []File{
		{Data: pngMagic, OriginalName: "ok.png"},
		{Data: pngMagic, OriginalName: "broken.gif"},
		{Data: pngMagic, OriginalName: "also-ok.png"},
	}
	result, err := mgr.UploadBatch(context.Background(), files, "pets", "pet-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Succeeded) != 2 || len(result.Failed) != 1 {
		t.Fatalf("want 2/1 split, got %d/%d", len(result.Succeeded), len(result.Failed))
	}
	if result.Failed[0].OriginalName != "broken.gif" {
		t.Errorf("failure attributed to wrong file: %s", result.Failed[0].OriginalName)
	}
}

func TestUploadBatchUnavailableStore(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	store.Unavailable = true
	mgr := newTestManager(store, NoopDeriver{}, 0)

	_, err := mgr.UploadBatch(context.Background(), []File{{Data: pngMagic, OriginalName: "a.png"}}, "pets", "pet-1")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("want unavailable error, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("no uploads should be attempted against an unreachable store")
	}
}

func TestUploadBatchEmpty(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	store.Unavailable = true // probe must not even run
	mgr := newTestManager(store, NoopDeriver{}, 0)

	result, err := mgr.UploadBatch(context.Background(), nil, "pets", "pet-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Succeeded) != 0 || len(result.Failed) != 0 {
		t.Error("empty batch should yield empty result")
	}
}

func TestSetMain(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 0)

	gallery := Gallery{
		{ObjectKey: "pets/a.jpg", IsMain: true},
		{ObjectKey: "pets/b.jpg"},
		{ObjectKey: "pets/c.jpg"},
	}

	updated, err := mgr.SetMain(gallery, "pets/c.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.MainCount() != 1 {
		t.Fatalf("want exactly one main, got %d", updated.MainCount())
	}
	if !updated[2].IsMain {
		t.Error("requested image should be main")
	}

	if _, err := mgr.SetMain(gallery, "pets/missing.jpg"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("want not found, got %v", err)
	}
}

func TestRemovePromotesNextImage(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 0)

	gallery := Gallery{
		{ObjectKey: "pets/a.jpg", IsMain: true, Thumbnail: &ThumbnailRef{ObjectKey: "pets/thumbnails/a.jpg"}},
		{ObjectKey: "pets/b.jpg"},
		{ObjectKey: "pets/c.jpg"},
	}

	updated, err := mgr.Remove(context.Background(), gallery, "pets/a.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("want 2 remaining, got %d", len(updated))
	}
	if !updated[0].IsMain || updated[0].ObjectKey != "pets/b.jpg" {
		t.Error("first remaining image should be promoted to main")
	}

	calls := store.DeleteCalls()
	if len(calls) != 2 {
		t.Fatalf("want deletes for original and thumbnail, got %v", calls)
	}
}

func TestRemoveNonMainKeepsMain(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 0)

	gallery := Gallery{
		{ObjectKey: "pets/a.jpg", IsMain: true},
		{ObjectKey: "pets/b.jpg"},
	}
	updated, err := mgr.Remove(context.Background(), gallery, "pets/b.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated[0].IsMain {
		t.Error("main flag should be untouched when a non-main image is removed")
	}
}

func TestRemoveSwallowsStoreFailure(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	store.FailDelete = func(string) error { return errors.New("store down") }
	mgr := newTestManager(store, NoopDeriver{}, 0)

	gallery := Gallery{{ObjectKey: "pets/a.jpg", IsMain: true}}
	updated, err := mgr.Remove(context.Background(), gallery, "pets/a.jpg")
	if err != nil {
		t.Fatalf("store failure must not block the removal: %v", err)
	}
	if len(updated) != 0 {
		t.Error("descriptor should be gone despite the failed delete")
	}
}

func TestRemoveMissingImage(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 0)

	_, err := mgr.Remove(context.Background(), Gallery{{ObjectKey: "pets/a.jpg"}}, "pets/nope.jpg")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("want not found, got %v", err)
	}
	if len(store.DeleteCalls()) != 0 {
		t.Error("no deletes should run for a missing descriptor")
	}
}

func TestPurgeAll(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, stubDeriver{out: []byte("thumb")}, 0)

	var gallery Gallery
	for i := 0; i < 3; i++ {
		desc, err := mgr.UploadOne(context.Background(), File{Data: pngMagic, OriginalName: fmt.Sprintf("img-%d.png", i)}, "pets", "pet-5")
		if err != nil {
			t.Fatalf("seed upload: %v", err)
		}
		gallery = append(gallery, desc)
	}
	if store.Len() != 6 {
		t.Fatalf("expected 3 originals + 3 thumbnails, got %d", store.Len())
	}

	mgr.PurgeAll(context.Background(), gallery)

	if store.Len() != 0 {
		t.Errorf("purge should remove every object, %d left", store.Len())
	}
}

func TestPurgeAllToleratesFailures(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	store.FailDelete = func(key string) error {
		if strings.Contains(key, "b.jpg") {
			return errors.New("transient")
		}
		return nil
	}
	mgr := newTestManager(store, NoopDeriver{}, 0)

	gallery := Gallery{
		{ObjectKey: "pets/a.jpg"},
		{ObjectKey: "pets/b.jpg"},
		{ObjectKey: "pets/c.jpg"},
	}
	// Must not panic or abort early.
	mgr.PurgeAll(context.Background(), gallery)

	if len(store.DeleteCalls()) != 3 {
		t.Errorf("every key should get a delete attempt, got %v", store.DeleteCalls())
	}
}

func TestPurgeAllEmptyGallery(t *testing.T) {
	store := storage.NewMemoryStore("pet-images")
	mgr := newTestManager(store, NoopDeriver{}, 0)
	mgr.PurgeAll(context.Background(), Gallery{})
	if len(store.DeleteCalls()) != 0 {
		t.Error("empty gallery should issue no deletes")
	}
}

package media

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDescriptorJSONFieldNames(t *testing.T) {
	taken := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	d := Descriptor{
		ObjectKey:    "pets/pet-1-123-abc.jpg",
		OriginalName: "fluffy.jpg",
		PublicURL:    "https://storage.local/b/pets/pet-1-123-abc.jpg",
		StoreURI:     "s3://b/pets/pet-1-123-abc.jpg",
		Bucket:       "b",
		Size:         42,
		ContentType:  "image/jpeg",
		IsMain:       true,
		Folder:       "pets",
		OwnerID:      "pet-1",
		Thumbnail: &ThumbnailRef{
			ObjectKey: "pets/thumbnails/pet-1-123-def.jpg",
			PublicURL: "https://storage.local/b/pets/thumbnails/pet-1-123-def.jpg",
		},
		UploadedAt: time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC),
		TakenAt:    &taken,
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// These names are the persistence contract for existing records.
	for _, name := range []string{
		"fileName", "originalName", "publicUrl", "gsUrl", "bucketName",
		"size", "contentType", "isMain", "folder", "petId",
		"thumbnail", "uploadedAt", "takenAt",
	} {
		if _, ok := fields[name]; !ok {
			t.Errorf("missing wire field %q", name)
		}
	}
}

func TestGalleryMainURL(t *testing.T) {
	if url := (Gallery{}).MainURL(); url != nil {
		t.Errorf("empty gallery should have nil main URL, got %q", *url)
	}

	g := Gallery{
		{ObjectKey: "a", PublicURL: "url-a"},
		{ObjectKey: "b", PublicURL: "url-b", IsMain: true},
	}
	if url := g.MainURL(); url == nil || *url != "url-b" {
		t.Errorf("want url-b, got %v", url)
	}

	// No main flag set: first image stands in.
	g2 := Gallery{{ObjectKey: "a", PublicURL: "url-a"}, {ObjectKey: "b", PublicURL: "url-b"}}
	if url := g2.MainURL(); url == nil || *url != "url-a" {
		t.Errorf("want url-a fallback, got %v", url)
	}
}

func TestGalleryNormalize(t *testing.T) {
	g := Gallery{
		{ObjectKey: "a"},
		{ObjectKey: "b", IsMain: true},
		{ObjectKey: "c", IsMain: true},
	}
	g = g.Normalize()
	if g.MainCount() != 1 {
		t.Fatalf("want exactly one main, got %d", g.MainCount())
	}
	if !g[1].IsMain {
		t.Errorf("first flagged descriptor should stay main")
	}

	g2 := Gallery{{ObjectKey: "a"}, {ObjectKey: "b"}}
	g2 = g2.Normalize()
	if !g2[0].IsMain {
		t.Errorf("mainless gallery should promote first descriptor")
	}

	if got := (Gallery{}).Normalize(); len(got) != 0 {
		t.Errorf("normalizing empty gallery should stay empty")
	}
}

func TestGalleryObjectKeys(t *testing.T) {
	g := Gallery{
		{ObjectKey: "pets/a.jpg", Thumbnail: &ThumbnailRef{ObjectKey: "pets/thumbnails/a.jpg"}},
		{ObjectKey: "pets/b.jpg"},
	}
	keys := g.ObjectKeys()
	if len(keys) != 3 {
		t.Fatalf("want 3 keys, got %d: %v", len(keys), keys)
	}
}

func TestGalleryBackfillOwner(t *testing.T) {
	g := Gallery{
		{ObjectKey: "a"},
		{ObjectKey: "b", OwnerID: "pet-9"},
	}
	g = g.BackfillOwner("pet-1")
	if g[0].OwnerID != "pet-1" {
		t.Errorf("ownerless descriptor should be stamped, got %q", g[0].OwnerID)
	}
	if g[1].OwnerID != "pet-9" {
		t.Errorf("existing owner should be preserved, got %q", g[1].OwnerID)
	}
}

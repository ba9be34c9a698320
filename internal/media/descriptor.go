package media

import "time"

// ThumbnailRef points at a derived thumbnail object.
type ThumbnailRef struct {
	ObjectKey string `json:"fileName"`
	PublicURL string `json:"publicUrl"`
}

// Descriptor is the persisted metadata for one uploaded image object.
//
// The JSON field names are the storage contract for existing records and must
// not change: fileName, originalName, publicUrl, gsUrl, bucketName, size,
// contentType, isMain, folder, petId.
type Descriptor struct {
	ObjectKey    string        `json:"fileName"`
	OriginalName string        `json:"originalName"`
	PublicURL    string        `json:"publicUrl"`
	StoreURI     string        `json:"gsUrl"`
	Bucket       string        `json:"bucketName"`
	Size         int64         `json:"size"`
	ContentType  string        `json:"contentType"`
	IsMain       bool          `json:"isMain"`
	Folder       string        `json:"folder"`
	OwnerID      string        `json:"petId,omitempty"`
	Thumbnail    *ThumbnailRef `json:"thumbnail,omitempty"`
	UploadedAt   time.Time     `json:"uploadedAt"`
	TakenAt      *time.Time    `json:"takenAt,omitempty"`
}

// Gallery is an owning entity's ordered image list, insertion order = upload
// order. Invariant: exactly one descriptor is main when the gallery is
// non-empty, zero when empty.
type Gallery []Descriptor

// Find returns the index of the descriptor with the given object key.
func (g Gallery) Find(objectKey string) (int, bool) {
	for i, d := range g {
		if d.ObjectKey == objectKey {
			return i, true
		}
	}
	return -1, false
}

// MainURL returns the public URL of the main image, or nil when the gallery
// is empty. This is the single derivation point for the legacy single-URL
// field mirrored on the owning entity.
func (g Gallery) MainURL() *string {
	for _, d := range g {
		if d.IsMain {
			url := d.PublicURL
			return &url
		}
	}
	if len(g) > 0 {
		url := g[0].PublicURL
		return &url
	}
	return nil
}

// Normalize repairs the main-image invariant in place: the first flagged
// descriptor stays main and all others are cleared; if none is flagged and
// the gallery is non-empty, the first descriptor is promoted.
func (g Gallery) Normalize() Gallery {
	seenMain := false
	for i := range g {
		if g[i].IsMain {
			if seenMain {
				g[i].IsMain = false
			}
			seenMain = true
		}
	}
	if !seenMain && len(g) > 0 {
		g[0].IsMain = true
	}
	return g
}

// MainCount returns the number of descriptors flagged as main.
func (g Gallery) MainCount() int {
	count := 0
	for _, d := range g {
		if d.IsMain {
			count++
		}
	}
	return count
}

// ObjectKeys returns every object key the gallery references, including
// thumbnail keys. Used by deletion fan-out and the orphan sweep.
func (g Gallery) ObjectKeys() []string {
	keys := make([]string, 0, len(g)*2)
	for _, d := range g {
		keys = append(keys, d.ObjectKey)
		if d.Thumbnail != nil {
			keys = append(keys, d.Thumbnail.ObjectKey)
		}
	}
	return keys
}

// BackfillOwner stamps ownerID on descriptors uploaded before the owning
// entity existed (create flow uploads first, then persists the entity).
func (g Gallery) BackfillOwner(ownerID string) Gallery {
	for i := range g {
		if g[i].OwnerID == "" {
			g[i].OwnerID = ownerID
		}
	}
	return g
}

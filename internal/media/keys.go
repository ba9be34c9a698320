// Package media implements the image asset lifecycle: key generation,
// upload, thumbnail derivation, gallery invariants, and cleanup against an
// object store. Authorization is the caller's concern; this package trusts it.
package media

import (
	"fmt"
	"path"
	"strings"
	"time"

	"furbabies_backend/platform/apperr"

	"github.com/google/uuid"
)

// contentTypeByExt maps file extensions to content types for upload metadata.
// Unmapped extensions fall back to image/jpeg and are stored as opaque bytes.
var contentTypeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
}

// allowedUploadExts are the extensions accepted for new uploads.
var allowedUploadExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// GenerateKey derives a collision-resistant object key from the target folder,
// the owning entity id (may be empty during create flows where the entity has
// not been persisted yet), and the user-supplied filename.
//
// Key shape: {folder}/{ownerID-}{unixMillis}-{uuid}{ext}. The millisecond
// timestamp plus a random 128-bit id guarantees uniqueness even for rapid
// concurrent uploads of identically named files to the same owner.
func GenerateKey(folder, ownerID, originalName string) (string, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return "", apperr.Validation("folder is required")
	}

	ext := strings.ToLower(path.Ext(originalName))
	timestamp := time.Now().UnixMilli()
	uniqueID := uuid.New().String()

	if ownerID != "" {
		return fmt.Sprintf("%s/%s-%d-%s%s", folder, ownerID, timestamp, uniqueID, ext), nil
	}
	return fmt.Sprintf("%s/%d-%s%s", folder, timestamp, uniqueID, ext), nil
}

// ContentTypeForName returns the content type implied by the filename's
// extension, defaulting to image/jpeg for unmapped extensions.
func ContentTypeForName(originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	if ct, ok := contentTypeByExt[ext]; ok {
		return ct
	}
	return "image/jpeg"
}

// HasAllowedExtension reports whether the filename carries an accepted image
// extension (case-insensitive).
func HasAllowedExtension(originalName string) bool {
	return allowedUploadExts[strings.ToLower(path.Ext(originalName))]
}

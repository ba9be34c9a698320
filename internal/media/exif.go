package media

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// captureTime extracts the EXIF DateTimeOriginal from image bytes. Most
// uploads (screenshots, web images, PNGs) carry no EXIF block; a nil return
// is the common case and never an error.
func captureTime(data []byte) *time.Time {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	taken, err := meta.DateTime()
	if err != nil {
		return nil
	}
	return &taken
}

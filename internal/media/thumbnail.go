package media

import (
	"bytes"

	"github.com/disintegration/imaging"
)

const (
	thumbMaxWidth  = 300
	thumbMaxHeight = 300
	thumbQuality   = 80
)

// Deriver produces a thumbnail rendition from original image bytes. A nil
// return means no thumbnail could (or should) be produced; callers treat that
// as a non-event, never an error.
type Deriver interface {
	Derive(data []byte) []byte
}

// ImagingDeriver decodes the original, scales it down to fit within a
// 300x300 box without enlarging, and re-encodes as JPEG.
type ImagingDeriver struct {
	quality int
}

func NewImagingDeriver() *ImagingDeriver {
	return &ImagingDeriver{quality: thumbQuality}
}

func (d *ImagingDeriver) Derive(data []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil
	}

	fitted := imaging.Fit(img, thumbMaxWidth, thumbMaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(d.quality)); err != nil {
		return nil
	}
	return buf.Bytes()
}

// NoopDeriver disables thumbnailing.
type NoopDeriver struct{}

func (NoopDeriver) Derive([]byte) []byte { return nil }

// NewDeriver returns the configured deriver implementation.
func NewDeriver(enabled bool) Deriver {
	if enabled {
		return NewImagingDeriver()
	}
	return NoopDeriver{}
}

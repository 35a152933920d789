// Package imaging normalizes item photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"

	// Decoders for the accepted upload formats.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	// MaxDimension bounds the longer side of a stored photo.
	MaxDimension = 1024
	// MaxPixels rejects uploads whose decoded size would be unreasonable.
	MaxPixels = 40_000_000
	// JPEGQuality is used for every stored photo.
	JPEGQuality = 85
	// Extension and ContentType describe the stored format.
	Extension   = ".jpg"
	ContentType = "image/jpeg"
)

// ErrUnsupported is returned for uploads that are not a JPEG, PNG or GIF.
var ErrUnsupported = errors.New("unsupported image format")

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Photo is a processed upload, always JPEG encoded.
type Photo struct {
	Data          []byte
	Width, Height int
}

// Process reads an uploaded photo, checks its real format, shrinks it to fit
// MaxDimension and re-encodes it as JPEG. Only the first frame of an
// animated GIF is kept.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	// Client supplied content types are not trusted.
	if kind := http.DetectContentType(data); !accepted[kind] {
		return nil, fmt.Errorf("%w: %s (use JPEG, PNG or GIF)", ErrUnsupported, kind)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("image too large: %dx%d", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img := fit(src, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down, keeping its aspect ratio, so that neither side is
// longer than limit. Smaller images are returned unchanged.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= limit && h <= limit {
		return img
	}

	if w >= h {
		h = max(1, h*limit/w)
		w = limit
	} else {
		w = max(1, w*limit/h)
		h = limit
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

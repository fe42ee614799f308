package phototag

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a source photo loaded for scoring: raw bytes for backends that
// upload the file, decoded pixels for backends that work on pixels.
type Image struct {
	Path     string
	Data     []byte
	MIMEType string      // sniffed from content, e.g. "image/jpeg"
	Pixels   image.Image // decoded, EXIF orientation applied
}

// LoadOpts configures LoadImage.
type LoadOpts struct {
	MaxBytes int64 // reject larger files (default: DefaultMaxImageBytes)
}

// LoadImage reads path, checks that the content is an image and decodes it.
// Unreadable, oversized, non-image and undecodable files are errors.
func LoadImage(path string, opts LoadOpts) (*Image, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxImageBytes
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrImageTooLarge, path, opts.MaxBytes)
	}

	mt := mimetype.Detect(data).String()
	// Strip MIME parameters: "image/svg+xml; charset=utf-8" → "image/svg+xml"
	if idx := strings.IndexByte(mt, ';'); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	if !strings.HasPrefix(mt, "image/") {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotImage, path, mt)
	}

	pixels, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &Image{Path: path, Data: data, MIMEType: mt, Pixels: pixels}, nil
}

// JPEG re-encodes the decoded pixels as JPEG, shrinking the image to fit in
// a maxSide x maxSide box first. maxSide <= 0 keeps the original size.
// Vision backends use this to bound upload size and normalize formats.
func (img *Image) JPEG(maxSide int) ([]byte, error) {
	src := img.Pixels
	if src == nil {
		return nil, fmt.Errorf("%w: %s has no decoded pixels", ErrNotImage, img.Path)
	}
	if maxSide > 0 {
		b := src.Bounds()
		if b.Dx() > maxSide || b.Dy() > maxSide {
			src = imaging.Fit(src, maxSide, maxSide, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", img.Path, err)
	}
	return buf.Bytes(), nil
}

package phototag

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
)

func makePNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: 30, G: 200, B: uint8(x), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("makePNG: " + err.Error())
	}
	return buf.Bytes()
}

func TestLoadImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		data     []byte
		wantMIME string
		wantW    int
		wantH    int
	}{
		{name: "jpeg", file: "a.jpg", data: makeJPEG(40, 20, false), wantMIME: "image/jpeg", wantW: 40, wantH: 20},
		{name: "png", file: "b.png", data: makePNG(12, 30), wantMIME: "image/png", wantW: 12, wantH: 30},
		// Content decides, not the extension.
		{name: "png named jpg", file: "c.jpg", data: makePNG(5, 5), wantMIME: "image/png", wantW: 5, wantH: 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, dir, tc.file, tc.data)
			img, err := LoadImage(path, LoadOpts{})
			if err != nil {
				t.Fatalf("LoadImage: %v", err)
			}
			if img.MIMEType != tc.wantMIME {
				t.Errorf("MIMEType = %q, want %q", img.MIMEType, tc.wantMIME)
			}
			b := img.Pixels.Bounds()
			if b.Dx() != tc.wantW || b.Dy() != tc.wantH {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.wantW, tc.wantH)
			}
			if img.Path != path || !bytes.Equal(img.Data, tc.data) {
				t.Error("path or data not preserved")
			}
		})
	}
}

func TestLoadImage_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jpg := makeJPEG(32, 32, false)

	tests := []struct {
		name    string
		path    string
		opts    LoadOpts
		wantErr error
	}{
		{name: "text file", path: writeFile(t, dir, "notes.jpg", []byte("shopping list: milk, eggs")), wantErr: ErrNotImage},
		{name: "too large", path: writeFile(t, dir, "big.jpg", jpg), opts: LoadOpts{MaxBytes: 100}, wantErr: ErrImageTooLarge},
		{name: "missing", path: filepath.Join(dir, "missing.jpg")},
		{name: "truncated jpeg", path: writeFile(t, dir, "broken.jpg", jpg[:len(jpg)/3])},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			img, err := LoadImage(tc.path, tc.opts)
			if err == nil {
				t.Fatalf("LoadImage = %+v, want error", img)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestImageJPEG(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "wide.png", makePNG(200, 100))
	img, err := LoadImage(path, LoadOpts{})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		maxSide int
		wantW   int
		wantH   int
	}{
		{maxSide: 50, wantW: 50, wantH: 25},
		{maxSide: 400, wantW: 200, wantH: 100},
		{maxSide: 0, wantW: 200, wantH: 100},
	}
	for _, tc := range tests {
		data, err := img.JPEG(tc.maxSide)
		if err != nil {
			t.Fatalf("JPEG(%d): %v", tc.maxSide, err)
		}
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatal(err)
		}
		if format != "jpeg" || cfg.Width != tc.wantW || cfg.Height != tc.wantH {
			t.Errorf("JPEG(%d) = %s %dx%d, want jpeg %dx%d", tc.maxSide, format, cfg.Width, cfg.Height, tc.wantW, tc.wantH)
		}
	}

	if _, err := (&Image{Path: "x"}).JPEG(10); !errors.Is(err, ErrNotImage) {
		t.Errorf("JPEG without pixels = %v, want ErrNotImage", err)
	}
}

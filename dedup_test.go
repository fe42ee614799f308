package phototag

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"
)

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestNearDuplicate(t *testing.T) {
	t.Parallel()

	ltr := decodeJPEG(t, makeJPEG(64, 64, false))
	ltrSmall := decodeJPEG(t, makeJPEG(32, 32, false))
	rtl := decodeJPEG(t, makeJPEG(64, 64, true))

	tests := []struct {
		name   string
		a, b   image.Image
		wantOK bool
		dup    bool
	}{
		{name: "identical", a: ltr, b: ltr, wantOK: true, dup: true},
		{name: "resized copy", a: ltr, b: ltrSmall, wantOK: true, dup: true},
		{name: "mirrored gradient", a: ltr, b: rtl, wantOK: true, dup: false},
		{name: "nil image", a: ltr, b: nil, wantOK: false, dup: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dup, ok := nearDuplicate(tc.a, tc.b)
			if ok != tc.wantOK || dup != tc.dup {
				t.Errorf("nearDuplicate = (%v, %v), want (%v, %v)", dup, ok, tc.dup, tc.wantOK)
			}
		})
	}
}

package phototag

import (
	"bytes"
	"strings"
	"time"

	"github.com/bep/imagemeta"
)

// Metadata holds the EXIF, IPTC and XMP capture fields shown next to a
// catalogued photo.
type Metadata struct {
	CameraMake  string
	CameraModel string
	Software    string
	TakenAt     string // EXIF DateTimeOriginal as recorded by the camera
	Artist      string // EXIF Artist, IPTC By-line or XMP dc:creator
	Copyright   string // EXIF Copyright, IPTC CopyrightNotice or XMP dc:rights
}

// Camera returns "make model" with the make de-duplicated, since many
// cameras repeat it in the model field ("Canon" / "Canon EOS R6").
func (m *Metadata) Camera() string {
	if m == nil {
		return ""
	}
	mk, model := strings.TrimSpace(m.CameraMake), strings.TrimSpace(m.CameraModel)
	switch {
	case mk == "":
		return model
	case model == "":
		return mk
	case strings.HasPrefix(strings.ToLower(model), strings.ToLower(mk)):
		return model
	default:
		return mk + " " + model
	}
}

// metadataFormats maps sniffed MIME types to the container formats
// imagemeta can parse.
var metadataFormats = map[string]imagemeta.ImageFormat{
	"image/jpeg": imagemeta.JPEG,
	"image/png":  imagemeta.PNG,
	"image/tiff": imagemeta.TIFF,
	"image/webp": imagemeta.WebP,
}

// wantedTags maps (source, tag-name) → true for every tag we care about.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"Make":             true,
		"Model":            true,
		"Software":         true,
		"DateTimeOriginal": true,
		"Artist":           true,
		"Copyright":        true,
	},
	imagemeta.IPTC: {
		"Byline":          true,
		"CopyrightNotice": true,
	},
	imagemeta.XMP: {
		"Creator": true,
		"Rights":  true,
	},
}

// ExtractMetadata parses capture metadata from raw image bytes.
// Returns nil if the format is unsupported or nothing useful was found.
// Graceful degradation: never returns an error.
func ExtractMetadata(data []byte, mimeType string) *Metadata {
	format, ok := metadataFormats[mimeType]
	if !ok || len(data) == 0 {
		return nil
	}

	meta := &Metadata{}
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if tags, ok := wantedTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			switch ti.Source {
			case imagemeta.EXIF:
				handleEXIFTag(meta, ti, &found)
			case imagemeta.IPTC, imagemeta.XMP:
				handleAuthorTag(meta, ti, &found)
			}
			return nil
		},
	})

	if err != nil || !found {
		return nil
	}

	return meta
}

// handleEXIFTag sets the appropriate Metadata field for an EXIF tag.
func handleEXIFTag(meta *Metadata, ti imagemeta.TagInfo, found *bool) {
	s := tagValueString(ti.Value)
	if s == "" {
		return
	}

	switch ti.Tag {
	case "Make":
		meta.CameraMake = s
	case "Model":
		meta.CameraModel = s
	case "Software":
		meta.Software = s
	case "DateTimeOriginal":
		meta.TakenAt = s
	case "Artist":
		meta.Artist = s
	case "Copyright":
		meta.Copyright = s
	default:
		return
	}

	*found = true
}

// handleAuthorTag fills Artist and Copyright from IPTC/XMP when EXIF left
// them empty.
func handleAuthorTag(meta *Metadata, ti imagemeta.TagInfo, found *bool) {
	s := tagValueString(ti.Value)
	if s == "" {
		return
	}

	switch ti.Tag {
	case "Byline", "Creator":
		if meta.Artist == "" {
			meta.Artist = s
		}
	case "CopyrightNotice", "Rights":
		if meta.Copyright == "" {
			meta.Copyright = s
		}
	default:
		return
	}

	*found = true
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []string:
		if len(val) > 0 {
			return strings.TrimSpace(val[0])
		}
		return ""
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
		return ""
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

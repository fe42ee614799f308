package phototag

import (
	"image"

	"github.com/corona10/goimagehash"
)

// dedupThreshold is the maximum Hamming distance between two dHash values
// below which images are considered perceptually identical.
const dedupThreshold = 10

// Collision describes a placement that overwrote another catalogued image's
// copy because both share a basename and a tag. The earlier copy is lost
// (last write wins); removing either image later deletes the shared file.
type Collision struct {
	Tag           string
	Other         string // catalog path whose copy was overwritten
	NearDuplicate bool   // perceptual hashes match within dedupThreshold
	Compared      bool   // false when either image could not be hashed
}

// nearDuplicate compares two decoded images by difference hash.
// If hashing fails for any reason, ok is false (graceful degradation).
func nearDuplicate(a, b image.Image) (dup bool, ok bool) {
	if a == nil || b == nil {
		return false, false
	}
	ha, err := goimagehash.DifferenceHash(a)
	if err != nil {
		return false, false
	}
	hb, err := goimagehash.DifferenceHash(b)
	if err != nil {
		return false, false
	}
	dist, err := ha.Distance(hb)
	if err != nil {
		return false, false
	}
	return dist < dedupThreshold, true
}

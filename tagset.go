package phototag

import "slices"

// TagSet is an ordered, duplicate-free list of labels. The Tagger produces
// tags in vocabulary order. A nil or empty TagSet means "no tags", which is
// distinct from an image being absent from the catalog.
type TagSet []string

// NewTagSet builds a TagSet from labels, dropping duplicates and keeping the
// first occurrence order.
func NewTagSet(labels ...string) TagSet {
	out := make(TagSet, 0, len(labels))
	for _, l := range labels {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}

// Contains reports whether tag is in the set.
func (s TagSet) Contains(tag string) bool {
	return slices.Contains(s, tag)
}

// Intersects reports whether s and other share at least one tag.
func (s TagSet) Intersects(other TagSet) bool {
	for _, t := range other {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// Minus returns the tags of s that are not in other, in s order.
func (s TagSet) Minus(other TagSet) TagSet {
	out := TagSet{}
	for _, t := range s {
		if !other.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

// Equal reports whether both sets hold the same tags, ignoring order.
func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for _, t := range s {
		if !other.Contains(t) {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not alias s. Clone of nil is an empty set.
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	copy(out, s)
	return out
}

package phototag

import "strings"

// defaultLabels are the campus-event labels the organizer ships with.
var defaultLabels = []string{
	"event", "campus", "group", "lecture", "classroom", "student", "university", "people",
	"celebration", "athlete", "sport", "professor", "device", "technology",
}

// DefaultVocabulary returns a fresh copy of the built-in label list.
func DefaultVocabulary() []string {
	out := make([]string, len(defaultLabels))
	copy(out, defaultLabels)
	return out
}

// IsValidLabel reports whether label can be used verbatim as a folder name
// directly under the save root.
func IsValidLabel(label string) bool {
	if strings.TrimSpace(label) == "" || label == "." || label == ".." {
		return false
	}
	return !strings.ContainsAny(label, `/\`+"\x00")
}

package phototag

import (
	"errors"
	"fmt"
)

var (
	ErrSaveRootUnset = errors.New("phototag: save folder not set")
	ErrNotImage      = errors.New("phototag: not an image")
	ErrImageTooLarge = errors.New("phototag: image too large")
	ErrNoVocabulary  = errors.New("phototag: empty vocabulary")
	ErrNoScorer      = errors.New("phototag: no scorer configured")
)

// ScoringError reports that an image could not be scored: the file was
// unreadable or undecodable, or the scorer backend failed.
type ScoringError struct {
	Path string
	Err  error
}

func (e *ScoringError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("phototag: scoring failed: %v", e.Err)
	}
	return fmt.Sprintf("phototag: scoring %s: %v", e.Path, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid setting. Field names the
// setting ("save_root", "threshold", "vocabulary").
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if errors.Is(e.Err, ErrSaveRootUnset) {
		return "phototag: save folder not set"
	}
	return fmt.Sprintf("phototag: invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// FilesystemError reports a failed copy, delete or mkdir under the save root.
type FilesystemError struct {
	Op   string // "mkdir", "copy", "remove"
	Tag  string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("phototag: %s %s (tag %q): %v", e.Op, e.Path, e.Tag, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func saveRootUnset() error {
	return &ConfigurationError{Field: "save_root", Err: ErrSaveRootUnset}
}

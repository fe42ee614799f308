package phototag

import (
	"fmt"
	"math"
)

// Validate fills defaults and checks the threshold, vocabulary and scorer.
// Problems are reported as *ConfigurationError.
func (cfg *Config) Validate() error {
	cfg.defaults()

	if t := cfg.threshold(); math.IsNaN(t) || t < 0 || t > 1 {
		return &ConfigurationError{Field: "threshold", Err: fmt.Errorf("%v is outside [0,1]", t)}
	}
	if err := ValidateVocabulary(cfg.Vocabulary); err != nil {
		return err
	}
	if cfg.Scorer == nil {
		return &ConfigurationError{Field: "scorer", Err: ErrNoScorer}
	}
	return nil
}

// ValidateVocabulary checks that labels is non-empty, has no duplicates and
// that every label is usable as a tag folder name.
func ValidateVocabulary(labels []string) error {
	if len(labels) == 0 {
		return &ConfigurationError{Field: "vocabulary", Err: ErrNoVocabulary}
	}
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if !IsValidLabel(l) {
			return &ConfigurationError{Field: "vocabulary", Err: fmt.Errorf("label %q is not a valid folder name", l)}
		}
		if seen[l] {
			return &ConfigurationError{Field: "vocabulary", Err: fmt.Errorf("duplicate label %q", l)}
		}
		seen[l] = true
	}
	return nil
}

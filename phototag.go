// Package phototag classifies photographs against a fixed label vocabulary
// and files copies of each photo into one folder per assigned tag.
package phototag

import (
	"context"
)

// DefaultThreshold is the minimum jointly-normalized probability a label
// needs to become a tag.
const DefaultThreshold = 0.3

// DefaultMaxImageBytes caps how much of a source file is read for scoring.
const DefaultMaxImageBytes = 64 << 20 // 64MB

// Scorer abstracts the vision-language model that rates an image against
// candidate labels. Score returns one real-valued score per label,
// order-aligned with labels. Scores are treated as logits: the Tagger
// normalizes them jointly with a softmax.
type Scorer interface {
	Name() string
	Score(ctx context.Context, img *Image, labels []string) ([]float64, error)
}

// Cache abstracts key-value caching (badger, sync.Map, etc.)
type Cache interface {
	Key(prefix, value string) string
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
}

// Config holds all dependencies injected by the consumer.
type Config struct {
	Scorer Scorer // required for tagging
	Cache  Cache  // optional: raw score cache (nil = no caching)

	// Vocabulary is the ordered list of candidate labels.
	// Default: DefaultVocabulary.
	Vocabulary []string

	// Threshold is the confidence cutoff in [0,1]; nil means DefaultThreshold.
	// Zero keeps every label.
	Threshold *float64

	// SaveRoot is the initial save folder. It may be left empty and set later
	// with Session.SetSaveRoot.
	SaveRoot string

	MaxImageBytes int64 // default: DefaultMaxImageBytes

	// Optional callbacks for metrics/logging.
	OnTagged func(TagEvent)
	OnPanic  func(tag string, r any)
}

// TagEvent describes one tagging decision.
type TagEvent struct {
	Path          string
	Scorer        string
	Probabilities []LabelProbability
	Tags          TagSet
	Cached        bool
}

// threshold returns the configured cutoff, or DefaultThreshold when unset.
func (c *Config) threshold() float64 {
	if c.Threshold == nil {
		return DefaultThreshold
	}
	return *c.Threshold
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if len(c.Vocabulary) == 0 {
		c.Vocabulary = DefaultVocabulary()
	}
	if c.Threshold == nil {
		c.Threshold = new(DefaultThreshold)
	}
	if c.MaxImageBytes <= 0 {
		c.MaxImageBytes = DefaultMaxImageBytes
	}
}

package phototag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// LabelProbability is a label with its jointly-normalized probability.
type LabelProbability struct {
	Label       string
	Probability float64
}

// Normalize converts raw per-label scores into a probability distribution
// with a softmax over all labels jointly: the results sum to 1 and describe
// how labels compare to each other for this image, not independent
// per-label confidences.
func Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// Threshold selects every label whose probability is >= threshold, in the
// order given.
func Threshold(probs []LabelProbability, threshold float64) TagSet {
	tags := TagSet{}
	for _, p := range probs {
		if p.Probability >= threshold {
			tags = append(tags, p.Label)
		}
	}
	return tags
}

// Classify scores img against vocabulary with a single scorer call and
// returns the normalized probability of every label, in vocabulary order.
func Classify(ctx context.Context, img *Image, vocabulary []string, scorer Scorer) ([]LabelProbability, error) {
	scores, err := score(ctx, img, vocabulary, scorer)
	if err != nil {
		return nil, err
	}
	return pairProbabilities(vocabulary, scores), nil
}

// Tag returns the labels of vocabulary whose normalized probability for img
// reaches threshold. An empty set is a valid result; scoring failures are
// returned as *ScoringError so they are never confused with "no tags".
func Tag(ctx context.Context, img *Image, vocabulary []string, scorer Scorer, threshold float64) (TagSet, error) {
	probs, err := Classify(ctx, img, vocabulary, scorer)
	if err != nil {
		return nil, err
	}
	return Threshold(probs, threshold), nil
}

// Tag tags img with the configured scorer, vocabulary and threshold,
// consulting the score cache when one is configured.
func (cfg *Config) Tag(ctx context.Context, img *Image) (TagSet, error) {
	cfg.defaults()

	if cfg.Scorer == nil {
		return nil, &ConfigurationError{Field: "scorer", Err: ErrNoScorer}
	}

	scores, cached, err := cfg.cachedScores(ctx, img)
	if err != nil {
		return nil, err
	}

	probs := pairProbabilities(cfg.Vocabulary, scores)
	tags := Threshold(probs, cfg.threshold())

	slog.Debug("phototag: tagged", "path", img.Path, "scorer", cfg.Scorer.Name(),
		"tags", tags, "cached", cached)
	if cfg.OnTagged != nil {
		cfg.OnTagged(TagEvent{
			Path:          img.Path,
			Scorer:        cfg.Scorer.Name(),
			Probabilities: probs,
			Tags:          tags,
			Cached:        cached,
		})
	}
	return tags, nil
}

// cachedScores returns raw scores for img, from the cache when possible.
// Raw scores are cached rather than tags so a threshold change never serves
// stale results.
func (cfg *Config) cachedScores(ctx context.Context, img *Image) ([]float64, bool, error) {
	if cfg.Cache == nil {
		scores, err := cfg.safeScore(ctx, img)
		return scores, false, err
	}

	key := cfg.Cache.Key("phototag_scores", scoreCacheValue(cfg.Scorer.Name(), img.Data, cfg.Vocabulary))
	var cached []float64
	if cfg.Cache.Get(ctx, key, &cached) && len(cached) == len(cfg.Vocabulary) {
		return cached, true, nil
	}

	scores, err := cfg.safeScore(ctx, img)
	if err != nil {
		return nil, false, err
	}
	cfg.Cache.Set(ctx, key, scores)
	return scores, false, nil
}

// safeScore calls the scorer, turning a panicking backend into a ScoringError.
func (cfg *Config) safeScore(ctx context.Context, img *Image) (scores []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			if cfg.OnPanic != nil {
				cfg.OnPanic("scorer", r)
			}
			scores, err = nil, &ScoringError{Path: img.Path, Err: fmt.Errorf("scorer panic: %v", r)}
		}
	}()
	return score(ctx, img, cfg.Vocabulary, cfg.Scorer)
}

func score(ctx context.Context, img *Image, vocabulary []string, scorer Scorer) ([]float64, error) {
	if len(vocabulary) == 0 {
		return nil, &ConfigurationError{Field: "vocabulary", Err: ErrNoVocabulary}
	}
	if scorer == nil {
		return nil, &ConfigurationError{Field: "scorer", Err: ErrNoScorer}
	}

	scores, err := scorer.Score(ctx, img, vocabulary)
	if err != nil {
		var se *ScoringError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &ScoringError{Path: img.Path, Err: err}
	}

	if len(scores) != len(vocabulary) {
		return nil, &ScoringError{
			Path: img.Path,
			Err:  fmt.Errorf("scorer %s returned %d scores for %d labels", scorer.Name(), len(scores), len(vocabulary)),
		}
	}
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, &ScoringError{
				Path: img.Path,
				Err:  fmt.Errorf("scorer %s returned non-finite score for %q", scorer.Name(), vocabulary[i]),
			}
		}
	}
	return scores, nil
}

func pairProbabilities(vocabulary []string, scores []float64) []LabelProbability {
	probs := Normalize(scores)
	out := make([]LabelProbability, len(vocabulary))
	for i, label := range vocabulary {
		out[i] = LabelProbability{Label: label, Probability: probs[i]}
	}
	return out
}

// scoreCacheValue identifies a scoring request: same backend, same bytes,
// same ordered vocabulary.
func scoreCacheValue(scorer string, data []byte, vocabulary []string) string {
	return scorer + "|" + ContentHash(data) + "|" + ContentHash([]byte(strings.Join(vocabulary, "\x1f")))
}

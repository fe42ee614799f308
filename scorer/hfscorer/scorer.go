// Package hfscorer scores images with a zero-shot image classification
// model (CLIP by default) on the Hugging Face Inference API.
package hfscorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-phototag"
)

const (
	DefaultModel   = "openai/clip-vit-base-patch32"
	DefaultBaseURL = "https://api-inference.huggingface.co/models/"
	DefaultMaxSide = 448

	minProbability = 1e-9
	maxErrorBody   = 4 * 1024
)

// Options configures a Scorer.
type Options struct {
	APIKey     string        // Hugging Face access token (optional for local endpoints)
	Model      string        // default: DefaultModel
	BaseURL    string        // model name is appended (default: DefaultBaseURL)
	MaxSide    int           // longest image side uploaded (default: DefaultMaxSide)
	Timeout    time.Duration // default: 120s
	HTTPClient *http.Client  // optional: overrides Timeout
}

// Scorer posts the image with the candidate labels and returns the
// log-probability of each label. CLIP already softmaxes across the
// candidates, so the tagger's own softmax reproduces those probabilities.
type Scorer struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
	maxSide int
}

// New creates a Scorer.
func New(opts Options) *Scorer {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.MaxSide <= 0 {
		opts.MaxSide = DefaultMaxSide
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Scorer{
		client:  hc,
		apiKey:  opts.APIKey,
		model:   opts.Model,
		baseURL: opts.BaseURL,
		maxSide: opts.MaxSide,
	}
}

// Name identifies the backend and model.
func (s *Scorer) Name() string { return "huggingface/" + s.model }

type request struct {
	Inputs     string     `json:"inputs"`
	Parameters parameters `json:"parameters"`
	Options    reqOptions `json:"options"`
}

type parameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type reqOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score uploads img and returns one log-probability per label.
func (s *Scorer) Score(ctx context.Context, img *phototag.Image, labels []string) ([]float64, error) {
	data, err := img.JPEG(s.maxSide)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(request{
		Inputs:     phototag.EncodeBase64(data),
		Parameters: parameters{CandidateLabels: labels},
		Options:    reqOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+s.model, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("huggingface returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var scores []labelScore
	if err := json.NewDecoder(resp.Body).Decode(&scores); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	slog.Debug("phototag: huggingface response", "path", img.Path, "model", s.model, "scores", scores)
	return alignScores(scores, labels)
}

// alignScores orders the API's label/score pairs (sorted by score) back into
// vocabulary order and converts them to log-probabilities.
func alignScores(scores []labelScore, labels []string) ([]float64, error) {
	byLabel := make(map[string]float64, len(scores))
	for _, ls := range scores {
		byLabel[ls.Label] = ls.Score
	}

	out := make([]float64, len(labels))
	for i, label := range labels {
		p, ok := byLabel[label]
		if !ok {
			return nil, fmt.Errorf("response has no score for %q", label)
		}
		out[i] = math.Log(math.Max(p, minProbability))
	}
	return out, nil
}

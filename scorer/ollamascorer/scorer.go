// Package ollamascorer scores images against labels with a vision model
// served by Ollama.
package ollamascorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/anatolykoptev/go-phototag"
)

const (
	DefaultModel   = "llava:13b"
	DefaultBaseURL = "http://localhost:11434"
	DefaultMaxSide = 672

	// minConfidence keeps log(confidence) finite for labels rated 0.
	minConfidence = 1e-4
)

// Prompt is the instruction sent with every image. %s is replaced by the
// comma-separated label list.
const Prompt = `You are tagging photographs for a photo organizer.
Rate how well each of the following labels describes the image: [%s].
For every label give a confidence from 0 to 100, where 0 means the label
does not apply at all and 100 means it clearly applies.
Respond using JSON with a "scores" object mapping each label to its number.
No introductions, explanations, or extra text.`

// Options configures a Scorer.
type Options struct {
	Model      string        // default: DefaultModel
	BaseURL    string        // default: DefaultBaseURL
	MaxSide    int           // longest image side sent to the model (default: DefaultMaxSide)
	Timeout    time.Duration // per-request HTTP timeout (default: 120s)
	HTTPClient *http.Client  // optional: overrides Timeout
}

// Scorer asks an Ollama vision model for a 0..100 confidence per label and
// returns log-confidences, so the tagger's joint softmax turns them into
// each label's share of the total confidence.
type Scorer struct {
	client  *api.Client
	model   string
	maxSide int
}

// New creates a Scorer talking to the Ollama server at opts.BaseURL.
func New(opts Options) (*Scorer, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxSide <= 0 {
		opts.MaxSide = DefaultMaxSide
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}

	parsedURL, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Scorer{
		client:  api.NewClient(parsedURL, hc),
		model:   opts.Model,
		maxSide: opts.MaxSide,
	}, nil
}

// Name identifies the backend and model.
func (s *Scorer) Name() string { return "ollama/" + s.model }

// Score sends img to the model and returns one log-confidence per label.
func (s *Scorer) Score(ctx context.Context, img *phototag.Image, labels []string) ([]float64, error) {
	data, err := img.JPEG(s.maxSide)
	if err != nil {
		return nil, err
	}

	format, err := scoresSchema(labels)
	if err != nil {
		return nil, err
	}

	request := &api.GenerateRequest{
		Model:   s.model,
		Prompt:  fmt.Sprintf(Prompt, strings.Join(labels, ", ")),
		Stream:  new(bool),
		Images:  []api.ImageData{data},
		Format:  format,
		Options: map[string]any{"temperature": 0},
	}

	var response string
	err = s.client.Generate(ctx, request, func(resp api.GenerateResponse) error {
		response += resp.Response
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama generate: %w", err)
	}

	slog.Debug("phototag: ollama response", "path", img.Path, "model", s.model, "response", response)
	return ParseScores(response, labels)
}

// ParseScores reads a {"scores": {label: confidence}} response and returns
// log(confidence/100) per label, order-aligned with labels. Confidences are
// clamped to [0,100]; every label must be present.
func ParseScores(resp string, labels []string) ([]float64, error) {
	var parsed struct {
		Scores map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp)), &parsed); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	// Models sometimes change label case; match case-insensitively.
	byLabel := make(map[string]float64, len(parsed.Scores))
	for k, v := range parsed.Scores {
		byLabel[strings.ToLower(strings.TrimSpace(k))] = v
	}

	out := make([]float64, len(labels))
	for i, label := range labels {
		c, ok := byLabel[strings.ToLower(label)]
		if !ok {
			return nil, fmt.Errorf("model response has no score for %q", label)
		}
		if math.IsNaN(c) {
			return nil, fmt.Errorf("model response has invalid score for %q", label)
		}
		c = math.Min(math.Max(c/100, minConfidence), 1)
		out[i] = math.Log(c)
	}
	return out, nil
}

// scoresSchema builds the JSON schema constraining the model output to a
// number per label.
func scoresSchema(labels []string) (json.RawMessage, error) {
	props := make(map[string]any, len(labels))
	for _, l := range labels {
		props[l] = map[string]any{"type": "number", "minimum": 0, "maximum": 100}
	}
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"scores": map[string]any{
				"type":       "object",
				"properties": props,
				"required":   labels,
			},
		},
		"required": []string{"scores"},
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("build response schema: %w", err)
	}
	return b, nil
}

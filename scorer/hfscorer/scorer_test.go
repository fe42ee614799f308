package hfscorer

import (
	"context"
	"encoding/json"
	"image"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anatolykoptev/go-phototag"
)

func testImage() *phototag.Image {
	return &phototag.Image{Path: "/photos/test.png", Pixels: image.NewGray(image.Rect(0, 0, 16, 16))}
}

func TestScorer_Score(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath string
	var gotReq request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		// The API sorts by score, not by candidate order.
		_, _ = w.Write([]byte(`[{"label":"sunset","score":0.7},{"label":"beach","score":0.3}]`))
	}))
	defer srv.Close()

	s := New(Options{APIKey: "hf_test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	scores, err := s.Score(context.Background(), testImage(), []string{"beach", "sunset"})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	probs := phototag.Normalize(scores)
	if math.Abs(probs[0]-0.3) > 1e-9 || math.Abs(probs[1]-0.7) > 1e-9 {
		t.Errorf("probs = %v, want [0.3 0.7]", probs)
	}
	if gotAuth != "Bearer hf_test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/"+DefaultModel {
		t.Errorf("path = %q", gotPath)
	}
	if len(gotReq.Parameters.CandidateLabels) != 2 || gotReq.Inputs == "" {
		t.Errorf("request = %+v", gotReq.Parameters)
	}
}

func TestScorer_ScoreErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusServiceUnavailable, `{"error":"loading"}`},
		{"bad json", http.StatusOK, `not json`},
		{"missing label", http.StatusOK, `[{"label":"beach","score":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := New(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
			if _, err := s.Score(context.Background(), testImage(), []string{"beach", "sunset"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAlignScores_ZeroProbability(t *testing.T) {
	t.Parallel()
	got, err := alignScores([]labelScore{{"a", 0}, {"b", 1}}, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if math.IsInf(got[0], 0) || got[1] != 0 {
		t.Errorf("got %v", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	s := New(Options{BaseURL: "http://localhost:8080/models"})
	if s.baseURL != "http://localhost:8080/models/" {
		t.Errorf("baseURL = %q", s.baseURL)
	}
	if s.Name() != "huggingface/"+DefaultModel {
		t.Errorf("Name() = %q", s.Name())
	}
}

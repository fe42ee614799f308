package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anatolykoptev/go-phototag"
	"github.com/anatolykoptev/go-phototag/cache/badgercache"
	"github.com/anatolykoptev/go-phototag/scorer/hfscorer"
	"github.com/anatolykoptev/go-phototag/scorer/ollamascorer"
)

// memoryCacheDir selects an in-memory score cache.
const memoryCacheDir = ":memory:"

// Config is the YAML configuration of the phototag command.
type Config struct {
	SaveRoot      string       `yaml:"save_root"`
	Threshold     *float64     `yaml:"threshold"` // unset means the library default
	Vocabulary    []string     `yaml:"vocabulary"`
	MaxImageBytes int64        `yaml:"max_image_bytes"`
	Scorer        ScorerConfig `yaml:"scorer"`
	Cache         CacheConfig  `yaml:"cache"`
	Log           LogConfig    `yaml:"log"`
}

// ScorerConfig selects and configures the vision backend.
type ScorerConfig struct {
	Backend string `yaml:"backend"` // "ollama" or "huggingface"
	Model   string `yaml:"model"`
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"` // huggingface only; falls back to $HF_TOKEN
	MaxSide int    `yaml:"max_side"`
	Timeout string `yaml:"timeout"` // e.g. "120s"
}

// CacheConfig configures the raw score cache. An empty dir disables it.
type CacheConfig struct {
	Dir string `yaml:"dir"` // ":memory:" keeps the cache in memory
	TTL string `yaml:"ttl"` // e.g. "720h"
}

// LogConfig configures logging. File output is rotated.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// LoadConfig reads and parses the YAML file at path. An empty path yields
// the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) defaults() {
	if c.Scorer.Backend == "" {
		c.Scorer.Backend = "ollama"
	}
	if c.Scorer.APIKey == "" {
		c.Scorer.APIKey = os.Getenv("HF_TOKEN")
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSize <= 0 {
		c.Log.MaxSize = 128
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 5
	}
	if c.Log.MaxAge <= 0 {
		c.Log.MaxAge = 16
	}
}

func (c *Config) validate() error {
	var errs []error
	switch strings.ToLower(c.Scorer.Backend) {
	case "ollama", "huggingface", "hf":
	default:
		errs = append(errs, fmt.Errorf("scorer.backend: unknown backend %q", c.Scorer.Backend))
	}
	if _, err := parseDuration(c.Scorer.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("scorer.timeout: %w", err))
	}
	if _, err := parseDuration(c.Cache.TTL); err != nil {
		errs = append(errs, fmt.Errorf("cache.ttl: %w", err))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if t := c.Threshold; t != nil && (math.IsNaN(*t) || *t < 0 || *t > 1) {
		errs = append(errs, fmt.Errorf("threshold: %v is outside [0,1]", *t))
	}
	return errors.Join(errs...)
}

// newScorer builds the configured vision backend.
func (c *Config) newScorer() (phototag.Scorer, error) {
	timeout, _ := parseDuration(c.Scorer.Timeout)
	switch strings.ToLower(c.Scorer.Backend) {
	case "huggingface", "hf":
		return hfscorer.New(hfscorer.Options{
			APIKey:  c.Scorer.APIKey,
			Model:   c.Scorer.Model,
			BaseURL: c.Scorer.URL,
			MaxSide: c.Scorer.MaxSide,
			Timeout: timeout,
		}), nil
	default:
		return ollamascorer.New(ollamascorer.Options{
			Model:   c.Scorer.Model,
			BaseURL: c.Scorer.URL,
			MaxSide: c.Scorer.MaxSide,
			Timeout: timeout,
		})
	}
}

// newCache opens the score cache, or returns nil when caching is disabled.
func (c *Config) newCache() (phototag.Cache, error) {
	if c.Cache.Dir == "" {
		return nil, nil
	}
	ttl, _ := parseDuration(c.Cache.TTL)
	dir := c.Cache.Dir
	if dir == memoryCacheDir {
		dir = ""
	}
	return badgercache.Open(dir, badgercache.Options{TTL: ttl})
}

// sessionConfig assembles the core configuration.
func (c *Config) sessionConfig(scorer phototag.Scorer, cache phototag.Cache) phototag.Config {
	return phototag.Config{
		Scorer:        scorer,
		Cache:         cache,
		Vocabulary:    c.Vocabulary,
		Threshold:     c.Threshold,
		SaveRoot:      c.SaveRoot,
		MaxImageBytes: c.MaxImageBytes,
		OnPanic: func(component string, r any) {
			slog.Error("phototag: panic recovered", "component", component, "panic", r)
		},
	}
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

package phototag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Outcome is the result of processing one uploaded image.
type Outcome struct {
	Path       string // absolute source path
	Tags       TagSet
	Metadata   *Metadata
	Placement  *Placement // nil when placement was not attempted
	Collisions []Collision
	Err        error
}

// Session owns the catalog, the save root and the configured scorer for one
// run of the organizer. The catalog lives only in memory and is lost when
// the session ends. A Session is not safe for concurrent use: callers
// process uploads one at a time.
type Session struct {
	ID string

	cfg     Config
	catalog *Catalog
	root    string
}

// NewSession validates cfg and starts an empty session. If cfg.SaveRoot is
// set it becomes the initial save folder.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Vocabulary = slices.Clone(cfg.Vocabulary)
	cfg.Threshold = new(cfg.threshold())

	s := &Session{
		ID:      uuid.NewString(),
		cfg:     cfg,
		catalog: NewCatalog(),
	}
	if cfg.SaveRoot != "" {
		if err := s.SetSaveRoot(cfg.SaveRoot); err != nil {
			return nil, err
		}
	}

	slog.Info("phototag: session started", "session", s.ID, "scorer", cfg.Scorer.Name(),
		"labels", len(cfg.Vocabulary), "threshold", cfg.threshold())
	return s, nil
}

// SetSaveRoot makes dir the save folder, creating it if needed.
// Images already placed keep their copies under the previous folder.
func (s *Session) SetSaveRoot(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return saveRootUnset()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return &ConfigurationError{Field: "save_root", Err: err}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: abs, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return &FilesystemError{Op: "stat", Path: abs, Err: err}
	}
	if !info.IsDir() {
		return &ConfigurationError{Field: "save_root", Err: fmt.Errorf("%s is not a directory", abs)}
	}

	s.root = abs
	slog.Info("phototag: save folder set", "session", s.ID, "root", abs)
	return nil
}

// SaveRoot returns the current save folder, or "" if none is set.
func (s *Session) SaveRoot() string { return s.root }

// Vocabulary returns the labels images are scored against.
func (s *Session) Vocabulary() []string { return slices.Clone(s.cfg.Vocabulary) }

// Threshold returns the confidence cutoff.
func (s *Session) Threshold() float64 { return s.cfg.threshold() }

// Process loads, tags, catalogs and places one image.
//
// Scoring failures return a *ScoringError and leave the catalog untouched.
// Once tagged, the image is recorded even if placement then fails: an unset
// save folder yields a *ConfigurationError, a failed copy a *FilesystemError,
// and the entry is marked StatePlacementFailed.
func (s *Session) Process(ctx context.Context, path string) (Outcome, error) {
	abs := absPath(path)
	out := Outcome{Path: abs}

	img, err := LoadImage(abs, LoadOpts{MaxBytes: s.cfg.MaxImageBytes})
	if err != nil {
		out.Err = &ScoringError{Path: abs, Err: err}
		slog.Warn("phototag: image skipped", "session", s.ID, "path", abs, "error", err.Error())
		return out, out.Err
	}

	tags, err := s.cfg.Tag(ctx, img)
	if err != nil {
		out.Err = err
		slog.Warn("phototag: image skipped", "session", s.ID, "path", abs, "error", err.Error())
		return out, err
	}
	out.Tags = tags

	prev, hadPrev := s.catalog.Get(abs)
	s.catalog.Record(abs, tags)
	out.Metadata = ExtractMetadata(img.Data, img.MIMEType)
	s.catalog.Annotate(abs, out.Metadata)

	if hadPrev && prev.Root != "" {
		stale := prev.Placed
		if prev.Root == s.root {
			stale = prev.Placed.Minus(tags)
		}
		stale = s.releasable(abs, stale, prev.Root)
		if err := Unplace(abs, stale, prev.Root); err != nil {
			slog.Warn("phototag: stale copies not removed", "session", s.ID, "path", abs, "error", err.Error())
		}
	}

	if s.root == "" {
		out.Err = saveRootUnset()
		s.catalog.MarkPlaced(abs, "", nil, out.Err)
		slog.Warn("phototag: save folder not set, image not placed", "session", s.ID, "path", abs)
		return out, out.Err
	}

	out.Collisions = s.collisions(abs, img, tags)

	placement, err := Place(abs, tags, s.root)
	out.Placement = placement
	var placed TagSet
	if placement != nil {
		placed = placement.Placed
	}
	s.catalog.MarkPlaced(abs, s.root, placed, err)
	if err != nil {
		out.Err = err
		slog.Warn("phototag: placement incomplete", "session", s.ID, "path", abs,
			"placed", placed, "error", err.Error())
		return out, err
	}

	slog.Info("phototag: image saved", "session", s.ID, "path", abs, "tags", tags)
	return out, nil
}

// Upload processes paths one after another. A failure on one image is
// recorded in its Outcome and processing continues with the next.
func (s *Session) Upload(ctx context.Context, paths []string) []Outcome {
	outcomes := make([]Outcome, 0, len(paths))
	for _, p := range paths {
		o, _ := s.Process(ctx, p)
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// Remove deletes the image's copies from the tag folders it was placed in
// and drops it from the catalog. Unknown paths are ignored. If a copy cannot
// be deleted the entry is kept and the *FilesystemError returned.
func (s *Session) Remove(path string) error {
	abs := absPath(path)
	e, ok := s.catalog.Get(abs)
	if !ok {
		return nil
	}

	if e.Root != "" {
		if err := Unplace(abs, s.releasable(abs, e.Tags, e.Root), e.Root); err != nil {
			return err
		}
	}
	s.catalog.Remove(abs)

	slog.Info("phototag: image removed", "session", s.ID, "path", abs, "tags", e.Tags)
	return nil
}

// releasable drops from tags every tag whose copy of path under root has
// since been overwritten by another catalogued image with the same basename.
func (s *Session) releasable(path string, tags TagSet, root string) TagSet {
	base := filepath.Base(path)
	var keep TagSet
	for _, tag := range tags {
		owner := ""
		for _, other := range s.catalog.WithTag(tag) {
			if other == path || filepath.Base(other) != base {
				continue
			}
			if e, ok := s.catalog.Get(other); ok && e.Root == root && e.Placed.Contains(tag) {
				owner = other
				break
			}
		}
		if owner != "" {
			slog.Warn("phototag: copy kept, owned by another image", "session", s.ID,
				"path", path, "tag", tag, "owner", owner)
			continue
		}
		keep = append(keep, tag)
	}
	return keep
}

// Filter returns catalogued paths carrying any of selected, or every path
// when selected is empty. Results are ordered by path.
func (s *Session) Filter(selected ...string) []string {
	return Filter(s.catalog.All(), NewTagSet(selected...))
}

// Tags returns every tag assigned during the session, sorted.
func (s *Session) Tags() []string { return s.catalog.Tags() }

// Snapshot returns a copy of every catalog entry, ordered by path.
func (s *Session) Snapshot() []Entry { return s.catalog.All() }

// Lookup returns the catalog entry for path.
func (s *Session) Lookup(path string) (Entry, bool) { return s.catalog.Get(absPath(path)) }

// Close ends the session, releasing the cache and scorer if they hold
// resources.
func (s *Session) Close() error {
	var errs []error
	for _, c := range []any{s.cfg.Cache, s.cfg.Scorer} {
		if closer, ok := c.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	slog.Info("phototag: session closed", "session", s.ID, "images", s.catalog.Len())
	return errors.Join(errs...)
}

// collisions finds catalogued images whose copy for one of tags will be
// overwritten by placing path, because they share its basename.
func (s *Session) collisions(path string, img *Image, tags TagSet) []Collision {
	base := filepath.Base(path)
	others := make(map[string]*Image)

	var out []Collision
	for _, tag := range tags {
		for _, other := range s.catalog.WithTag(tag) {
			if other == path || filepath.Base(other) != base {
				continue
			}
			e, ok := s.catalog.Get(other)
			if !ok || e.Root != s.root || !e.Placed.Contains(tag) {
				continue
			}

			otherImg, seen := others[other]
			if !seen {
				otherImg, _ = LoadImage(other, LoadOpts{MaxBytes: s.cfg.MaxImageBytes})
				others[other] = otherImg
			}
			c := Collision{Tag: tag, Other: other}
			if otherImg != nil {
				c.NearDuplicate, c.Compared = nearDuplicate(img.Pixels, otherImg.Pixels)
			}
			slog.Warn("phototag: basename collision, earlier copy will be overwritten",
				"session", s.ID, "path", path, "other", other, "tag", tag, "near_duplicate", c.NearDuplicate)
			out = append(out, c)
		}
	}
	return out
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

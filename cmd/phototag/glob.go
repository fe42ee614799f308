package main

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

const globMeta = "*?[{"

// expandPatterns resolves upload arguments to file paths. Plain paths are
// passed through untouched so missing files surface as per-image errors.
// Patterns are matched segment by segment ("*" stays within a directory,
// "**" crosses directories); a pattern matching nothing is an error.
func expandPatterns(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, globMeta) {
			out = append(out, arg)
			continue
		}
		matches, err := expandPattern(arg)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func expandPattern(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(filepath.Clean(pattern))
	var globs []glob.Glob
	for _, p := range []string{pattern, zeroDepth(pattern)} {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	base, remaining := staticPrefix(pattern)
	recursive := strings.Contains(pattern, "**")

	var matches []string
	err := filepath.WalkDir(filepath.FromSlash(base), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == filepath.FromSlash(base) {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != filepath.FromSlash(base) && !recursive && depth(base, path) >= remaining {
				return filepath.SkipDir
			}
			return nil
		}
		for _, g := range globs {
			if g.Match(filepath.ToSlash(path)) {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", pattern, err)
	}
	return matches, nil
}

// zeroDepth returns pattern with its "**" segments dropped, so "**/*.jpg"
// also matches files directly in the base folder. It returns "" when the
// pattern has no such segment.
func zeroDepth(pattern string) string {
	segs := strings.Split(pattern, "/")
	kept := segs[:0:0]
	for _, seg := range segs {
		if seg != "**" {
			kept = append(kept, seg)
		}
	}
	if len(kept) == len(segs) || len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "/")
}

// staticPrefix splits pattern into the directory before its first wildcard
// segment and the number of segments from there on.
func staticPrefix(pattern string) (string, int) {
	segs := strings.Split(pattern, "/")
	i := 0
	for i < len(segs) && !strings.ContainsAny(segs[i], globMeta) {
		i++
	}
	base := strings.Join(segs[:i], "/")
	if base == "" {
		if strings.HasPrefix(pattern, "/") {
			base = "/"
		} else {
			base = "."
		}
	}
	return base, len(segs) - i
}

func depth(base, path string) int {
	rel, err := filepath.Rel(filepath.FromSlash(base), path)
	if err != nil {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}

package phototag

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Placement lists what Place did. On a mid-way failure it describes the
// partial result: copies made for earlier tags stay on disk.
type Placement struct {
	Root        string
	Placed      TagSet   // tags whose copy completed, in placement order
	Copies      []string // destination paths written, aligned with Placed
	Overwritten []string // destinations that already existed and were replaced
}

// TagPath returns where Place puts the copy of source for tag:
// <root>/<tag>/<basename>.
func TagPath(root, tag, source string) string {
	return filepath.Join(root, tag, filepath.Base(source))
}

// Place copies the file at path into root/<tag>/ for every tag, creating tag
// folders as needed. An existing file with the same basename is overwritten.
//
// With an empty root nothing is created and a *ConfigurationError wrapping
// ErrSaveRootUnset is returned. Placement is not transactional: if a copy
// fails, the tags already handled keep their copies, the remaining tags are
// skipped, and the returned Placement describes what was done alongside a
// *FilesystemError.
func Place(path string, tags TagSet, root string) (*Placement, error) {
	if root == "" {
		return nil, saveRootUnset()
	}

	p := &Placement{Root: root, Placed: TagSet{}}
	for _, tag := range tags {
		dir := filepath.Join(root, tag)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return p, &FilesystemError{Op: "mkdir", Tag: tag, Path: dir, Err: err}
		}

		dest := TagPath(root, tag, path)
		existed, err := copyFile(path, dest)
		if err != nil {
			return p, &FilesystemError{Op: "copy", Tag: tag, Path: dest, Err: err}
		}
		if existed {
			slog.Debug("phototag: overwrote existing copy", "dest", dest, "source", path)
			p.Overwritten = append(p.Overwritten, dest)
		}
		p.Placed = append(p.Placed, tag)
		p.Copies = append(p.Copies, dest)
	}

	return p, nil
}

// Unplace deletes the copies of path under root/<tag>/ for every tag.
// Missing files and folders are not errors, and tag folders are kept even
// when they end up empty. Every tag is attempted; the first failure is
// returned as a *FilesystemError.
func Unplace(path string, tags TagSet, root string) error {
	if root == "" {
		return saveRootUnset()
	}

	var first error
	for _, tag := range tags {
		dest := TagPath(root, tag, path)
		err := os.Remove(dest)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			continue
		}
		slog.Warn("phototag: remove copy failed", "dest", dest, "error", err.Error())
		if first == nil {
			first = &FilesystemError{Op: "remove", Tag: tag, Path: dest, Err: err}
		}
	}
	return first
}

// copyFile copies src to dest and carries over the source permission bits.
// The data is written to a temporary file in dest's folder and renamed over
// dest, so an existing read-only copy is replaced rather than reopened.
// existed reports whether dest was there before.
func copyFile(src, dest string) (existed bool, err error) {
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", src)
	}

	if destInfo, statErr := os.Stat(dest); statErr == nil {
		existed = true
		if os.SameFile(info, destInfo) {
			return true, nil
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".phototag-*")
	if err != nil {
		return existed, err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		tmp.Close()
		return existed, err
	}
	if err = tmp.Close(); err != nil {
		return existed, err
	}
	if err = os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return existed, err
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return existed, err
	}
	return existed, nil
}

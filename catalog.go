package phototag

import (
	"slices"

	"github.com/tidwall/btree"
)

// State is the lifecycle position of a catalogued image.
type State int

const (
	StateTagged          State = iota // scored, not yet placed
	StatePlaced                       // a copy exists under every assigned tag
	StatePlacementFailed              // save root unset or a copy failed part-way
)

func (s State) String() string {
	switch s {
	case StateTagged:
		return "tagged"
	case StatePlaced:
		return "placed"
	case StatePlacementFailed:
		return "placement_failed"
	default:
		return "unknown"
	}
}

// Entry is one catalogued image.
type Entry struct {
	Path     string // absolute source path, the catalog key
	Tags     TagSet
	State    State
	Root     string    // save root the copies went to ("" = never placed)
	Placed   TagSet    // tags whose copy completed under Root
	Metadata *Metadata // capture metadata, nil when none was found
	Err      error     // last placement error
}

// Catalog maps image paths to their tags and keeps the reverse index of
// every tag seen. Iteration is ordered by path.
// It is not safe for concurrent use.
type Catalog struct {
	entries *btree.Map[string, *Entry]
	tags    map[string]map[string]struct{} // tag -> paths; tags are never deleted
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		entries: btree.NewMap[string, *Entry](0),
		tags:    make(map[string]map[string]struct{}),
	}
}

// Record stores tags for path, replacing any prior entry.
func (c *Catalog) Record(path string, tags TagSet) {
	if prev, ok := c.entries.Get(path); ok {
		c.unindex(path, prev.Tags)
	}
	tags = tags.Clone()
	c.entries.Set(path, &Entry{Path: path, Tags: tags, State: StateTagged})
	for _, t := range tags {
		paths, ok := c.tags[t]
		if !ok {
			paths = make(map[string]struct{})
			c.tags[t] = paths
		}
		paths[path] = struct{}{}
	}
}

// Lookup returns the tags recorded for path. ok is false when path is absent;
// an empty set with ok true means the image was tagged with nothing.
func (c *Catalog) Lookup(path string) (TagSet, bool) {
	e, ok := c.entries.Get(path)
	if !ok {
		return nil, false
	}
	return e.Tags.Clone(), true
}

// Get returns a copy of the entry for path.
func (c *Catalog) Get(path string) (Entry, bool) {
	e, ok := c.entries.Get(path)
	if !ok {
		return Entry{}, false
	}
	return e.snapshot(), true
}

// Remove deletes the entry for path. Removing an absent path is a no-op.
func (c *Catalog) Remove(path string) {
	prev, ok := c.entries.Delete(path)
	if !ok {
		return
	}
	c.unindex(path, prev.Tags)
}

// All returns a snapshot of every entry, ordered by path.
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, c.entries.Len())
	c.entries.Scan(func(_ string, e *Entry) bool {
		out = append(out, e.snapshot())
		return true
	})
	return out
}

// Len returns the number of catalogued images.
func (c *Catalog) Len() int {
	return c.entries.Len()
}

// Tags returns every tag any image has received during the catalog's life,
// sorted. Tags whose images were all removed are still listed.
func (c *Catalog) Tags() []string {
	out := make([]string, 0, len(c.tags))
	for t := range c.tags {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// WithTag returns the paths currently carrying tag, sorted.
func (c *Catalog) WithTag(tag string) []string {
	paths := c.tags[tag]
	out := make([]string, 0, len(paths))
	for p := range paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Annotate attaches capture metadata to an existing entry.
func (c *Catalog) Annotate(path string, meta *Metadata) {
	if e, ok := c.entries.Get(path); ok {
		e.Metadata = meta
	}
}

// MarkPlaced records the outcome of placing path under root. placed lists
// the tags whose copies completed; err is the placement error, if any.
func (c *Catalog) MarkPlaced(path, root string, placed TagSet, err error) {
	e, ok := c.entries.Get(path)
	if !ok {
		return
	}
	if root != "" {
		e.Root = root
	}
	e.Placed = placed.Clone()
	e.Err = err
	if err != nil {
		e.State = StatePlacementFailed
	} else {
		e.State = StatePlaced
	}
}

func (c *Catalog) unindex(path string, tags TagSet) {
	for _, t := range tags {
		if paths, ok := c.tags[t]; ok {
			delete(paths, path)
		}
	}
}

func (e *Entry) snapshot() Entry {
	cp := *e
	cp.Tags = e.Tags.Clone()
	cp.Placed = e.Placed.Clone()
	return cp
}

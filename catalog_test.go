package phototag

import (
	"errors"
	"reflect"
	"testing"
)

func TestCatalog_RecordLookup(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.Record("/p/a.jpg", TagSet{"event", "people"})

	got, ok := c.Lookup("/p/a.jpg")
	if !ok || !got.Equal(TagSet{"event", "people"}) {
		t.Errorf("Lookup = %v, %v", got, ok)
	}
	if _, ok := c.Lookup("/p/missing.jpg"); ok {
		t.Error("Lookup of unknown path reported ok")
	}

	// No tags is a valid, present result.
	c.Record("/p/blank.jpg", TagSet{})
	got, ok = c.Lookup("/p/blank.jpg")
	if !ok || len(got) != 0 {
		t.Errorf("Lookup(blank) = %v, %v; want empty, true", got, ok)
	}
}

func TestCatalog_RecordReplaces(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.Record("/p/a.jpg", TagSet{"event"})
	c.MarkPlaced("/p/a.jpg", "/root", TagSet{"event"}, nil)
	c.Record("/p/a.jpg", TagSet{"sport"})

	e, _ := c.Get("/p/a.jpg")
	if !e.Tags.Equal(TagSet{"sport"}) || e.State != StateTagged {
		t.Errorf("entry after re-record = %+v", e)
	}
	if got := c.WithTag("event"); len(got) != 0 {
		t.Errorf("WithTag(event) = %v, want none", got)
	}
	if got := c.WithTag("sport"); !reflect.DeepEqual(got, []string{"/p/a.jpg"}) {
		t.Errorf("WithTag(sport) = %v", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCatalog_Remove(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.Record("/p/a.jpg", TagSet{"event"})
	c.Remove("/p/a.jpg")

	if _, ok := c.Lookup("/p/a.jpg"); ok {
		t.Error("removed path still present")
	}
	c.Remove("/p/a.jpg")
	c.Remove("/p/never.jpg")

	if got := c.Tags(); !reflect.DeepEqual(got, []string{"event"}) {
		t.Errorf("Tags after remove = %v, want [event] (tags are kept)", got)
	}
	if got := c.WithTag("event"); len(got) != 0 {
		t.Errorf("WithTag after remove = %v", got)
	}
}

func TestCatalog_AllOrderedByPath(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	for _, p := range []string{"/z.jpg", "/a.jpg", "/m/b.jpg"} {
		c.Record(p, TagSet{"x"})
	}

	var paths []string
	for _, e := range c.All() {
		paths = append(paths, e.Path)
	}
	if want := []string{"/a.jpg", "/m/b.jpg", "/z.jpg"}; !reflect.DeepEqual(paths, want) {
		t.Errorf("All paths = %v, want %v", paths, want)
	}
	if got := c.Tags(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Tags = %v", got)
	}
}

func TestCatalog_MarkPlaced(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.Record("/p/a.jpg", TagSet{"a", "b"})
	c.Annotate("/p/a.jpg", &Metadata{CameraMake: "Canon"})

	c.MarkPlaced("/p/a.jpg", "/root", TagSet{"a"}, errors.New("disk full"))
	e, _ := c.Get("/p/a.jpg")
	if e.State != StatePlacementFailed || e.Root != "/root" || !e.Placed.Equal(TagSet{"a"}) || e.Err == nil {
		t.Errorf("after failed placement: %+v", e)
	}
	if e.Metadata == nil || e.Metadata.CameraMake != "Canon" {
		t.Errorf("metadata lost: %+v", e.Metadata)
	}

	c.MarkPlaced("/p/a.jpg", "/root", TagSet{"a", "b"}, nil)
	e, _ = c.Get("/p/a.jpg")
	if e.State != StatePlaced || e.Err != nil {
		t.Errorf("after placement: %+v", e)
	}

	// Unknown paths are ignored.
	c.MarkPlaced("/p/none.jpg", "/root", nil, nil)
	if c.Len() != 1 {
		t.Errorf("MarkPlaced created an entry")
	}
}

func TestCatalog_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	c.Record("/p/a.jpg", TagSet{"a"})
	e, _ := c.Get("/p/a.jpg")
	e.Tags[0] = "mutated"

	got, _ := c.Lookup("/p/a.jpg")
	if got[0] != "a" {
		t.Errorf("catalog mutated through snapshot: %v", got)
	}
}

func TestState_String(t *testing.T) {
	t.Parallel()

	for s, want := range map[State]string{
		StateTagged:          "tagged",
		StatePlaced:          "placed",
		StatePlacementFailed: "placement_failed",
		State(42):            "unknown",
	} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}

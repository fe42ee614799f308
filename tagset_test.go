package phototag

import (
	"reflect"
	"testing"
)

func TestNewTagSet(t *testing.T) {
	t.Parallel()

	got := NewTagSet("sport", "event", "sport", "campus", "event")
	want := TagSet{"sport", "event", "campus"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewTagSet = %v, want %v", got, want)
	}
	if empty := NewTagSet(); empty == nil || len(empty) != 0 {
		t.Errorf("NewTagSet() = %#v, want empty non-nil", empty)
	}
}

func TestTagSetOps(t *testing.T) {
	t.Parallel()

	s := TagSet{"a", "b", "c"}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"contains", s.Contains("b"), true},
		{"not contains", s.Contains("z"), false},
		{"intersects", s.Intersects(TagSet{"z", "c"}), true},
		{"disjoint", s.Intersects(TagSet{"x", "y"}), false},
		{"intersects empty", s.Intersects(nil), false},
		{"minus", s.Minus(TagSet{"b"}), TagSet{"a", "c"}},
		{"minus all", s.Minus(s), TagSet{}},
		{"equal reordered", s.Equal(TagSet{"c", "a", "b"}), true},
		{"not equal", s.Equal(TagSet{"a", "b"}), false},
		{"nil equals empty", TagSet(nil).Equal(TagSet{}), true},
	}

	for _, tc := range tests {
		if !reflect.DeepEqual(tc.got, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestTagSetClone(t *testing.T) {
	t.Parallel()

	s := TagSet{"a", "b"}
	c := s.Clone()
	c[0] = "changed"
	if s[0] != "a" {
		t.Error("Clone aliases the original")
	}
	if n := TagSet(nil).Clone(); n == nil {
		t.Error("Clone of nil should be an empty set")
	}
}

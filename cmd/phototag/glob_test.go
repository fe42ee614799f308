package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandPatterns(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	touch(t,
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "c.jpg"),
		filepath.Join(dir, "sub", "d.jpg"),
	)
	j := func(parts ...string) string { return filepath.Join(append([]string{dir}, parts...)...) }

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{"plain path passes through", []string{j("missing.jpg")}, []string{j("missing.jpg")}, false},
		{"star stays in dir", []string{j("*.jpg")}, []string{j("a.jpg"), j("c.jpg")}, false},
		{"alternation", []string{j("*.{jpg,png}")}, []string{j("a.jpg"), j("b.png"), j("c.jpg")}, false},
		{"double star crosses dirs", []string{j("**.jpg")}, []string{j("a.jpg"), j("c.jpg"), j("sub", "d.jpg")}, false},
		{"double star segment includes base dir", []string{j("**", "*.jpg")}, []string{j("a.jpg"), j("c.jpg"), j("sub", "d.jpg")}, false},
		{"subdir wildcard", []string{j("*", "*.jpg")}, []string{j("sub", "d.jpg")}, false},
		{"no match", []string{j("*.gif")}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := expandPatterns(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaticPrefix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pattern   string
		base      string
		remaining int
	}{
		{"*.jpg", ".", 1},
		{"photos/*.jpg", "photos", 1},
		{"/abs/dir/*/x.jpg", "/abs/dir", 2},
		{"/*.jpg", "/", 1},
	}
	for _, tt := range tests {
		base, rem := staticPrefix(tt.pattern)
		if base != tt.base || rem != tt.remaining {
			t.Errorf("staticPrefix(%q) = %q, %d; want %q, %d", tt.pattern, base, rem, tt.base, tt.remaining)
		}
	}
}

func TestZeroDepth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pattern, want string
	}{
		{"**/*.jpg", "*.jpg"},
		{"photos/**/*.jpg", "photos/*.jpg"},
		{"/abs/**/x/**/*.jpg", "/abs/x/*.jpg"},
		{"**.jpg", ""},
		{"*.jpg", ""},
		{"**", ""},
	}
	for _, tt := range tests {
		if got := zeroDepth(tt.pattern); got != tt.want {
			t.Errorf("zeroDepth(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

package flystorage

import (
	"errors"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already canonical", in: "path/to/file.txt", want: "path/to/file.txt"},
		{name: "dot is root", in: ".", want: ""},
		{name: "leading and trailing slash", in: "/dirname/", want: "dirname"},
		{name: "resolves to root", in: "dirname/..", want: ""},
		{name: "dot segments collapse", in: "./dir/../././", want: ""},
		{name: "deep traversal in bounds", in: "/something/deep/../../dirname", want: "dirname"},
		{name: "internal parent resolution", in: "a/../b", want: "b"},
		{name: "double slashes", in: "a//b", want: "a/b"},
		{name: "double dot inside segment preserved", in: "some/10-75..stl", want: "some/10-75..stl"},
		{name: "empty is root", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePath(tt.in)
			if err != nil {
				t.Fatalf("NormalizePath(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizePathRoundTrip(t *testing.T) {
	// A canonical path normalizes to itself.
	for _, p := range []string{"", "a", "a/b", "deeply/nested/path/file.bin", "with space/file.txt"} {
		got, err := NormalizePath(p)
		if err != nil {
			t.Fatalf("NormalizePath(%q) error = %v", p, err)
		}
		if got != p {
			t.Errorf("NormalizePath(%q) = %q, want unchanged", p, got)
		}
	}
}

func TestNormalizePathTraversal(t *testing.T) {
	for _, p := range []string{"../x", "a/../../b", "..", "/..", "a/b/../../../c"} {
		t.Run(p, func(t *testing.T) {
			_, err := NormalizePath(p)
			if !errors.Is(err, ErrPathTraversal) {
				t.Errorf("NormalizePath(%q) error = %v, want ErrPathTraversal", p, err)
			}
		})
	}
}

func TestNormalizePathCorrupted(t *testing.T) {
	for _, p := range []string{"a\x00b", "with\ttab", "line\nbreak", "bell\x07", "esc\x1b[0m"} {
		t.Run(p, func(t *testing.T) {
			_, err := NormalizePath(p)
			if !errors.Is(err, ErrCorruptedPath) {
				t.Errorf("NormalizePath(%q) error = %v, want ErrCorruptedPath", p, err)
			}
		})
	}
}

func TestNormalizePathErrorShape(t *testing.T) {
	_, err := NormalizePath("../escape")

	var pathErr *PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("error = %T, want *PathError", err)
	}
	if pathErr.Path != "../escape" {
		t.Errorf("PathError.Path = %q, want the offending input", pathErr.Path)
	}
}

package flystorage

import (
	"strings"
	"unicode"
)

// NormalizePath converts a user supplied path into its canonical relative
// form: no leading or trailing separator, no empty, "." or ".." segments,
// forward slashes only. The canonical form of the root is the empty string.
//
// Two failure modes exist. Paths containing control characters (NUL, C0/C1
// controls) fail with ErrCorruptedPath. Paths whose ".." segments would
// resolve above the root fail with ErrPathTraversal. A ".." that stays in
// bounds is resolved silently, and a literal ".." inside a segment (for
// example "10-75..stl") is not special.
func NormalizePath(path string) (string, error) {
	for _, r := range path {
		if unicode.In(r, unicode.C) {
			return "", &PathError{Op: "normalize", Path: path, Err: ErrCorruptedPath}
		}
	}

	segments := strings.Split(path, "/")
	stack := make([]string, 0, len(segments))

	for _, segment := range segments {
		switch segment {
		case "", ".":
			// skip
		case "..":
			if len(stack) == 0 {
				return "", &PathError{Op: "normalize", Path: path, Err: ErrPathTraversal}
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, segment)
		}
	}

	return strings.Join(stack, "/"), nil
}

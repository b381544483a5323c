package flystorage

import "strings"

// PathPrefixer maps canonical paths into a backend namespace by prepending a
// configured root, and strips that root from paths coming back. The
// separator is configurable so the same shape serves POSIX disk paths and
// flat object-store key namespaces.
//
// For any canonical path p, StripFilePath(PrefixFilePath(p)) == p and
// StripDirectoryPath(PrefixDirectoryPath(p)) == p.
type PathPrefixer struct {
	prefix    string
	separator string
}

// NewPathPrefixer creates a prefixer rooted at prefix. The separator
// defaults to "/"; pass a different one for backends with their own key
// delimiter.
func NewPathPrefixer(prefix string, separator ...string) *PathPrefixer {
	sep := "/"
	if len(separator) > 0 && separator[0] != "" {
		sep = separator[0]
	}
	prefix = strings.Trim(prefix, sep)
	if prefix != "" {
		prefix += sep
	}
	return &PathPrefixer{prefix: prefix, separator: sep}
}

// PrefixFilePath maps a canonical file path into the backend namespace.
func (p *PathPrefixer) PrefixFilePath(path string) string {
	return p.prefix + strings.TrimPrefix(path, p.separator)
}

// PrefixDirectoryPath maps a canonical directory path into the backend
// namespace. Directory paths always carry a trailing separator; the root
// directory maps to the bare prefix.
func (p *PathPrefixer) PrefixDirectoryPath(path string) string {
	prefixed := p.PrefixFilePath(path)
	if prefixed != "" && !strings.HasSuffix(prefixed, p.separator) {
		prefixed += p.separator
	}
	return prefixed
}

// StripFilePath removes the configured root from a backend file path.
func (p *PathPrefixer) StripFilePath(path string) string {
	return strings.TrimPrefix(path, p.prefix)
}

// StripDirectoryPath removes the configured root and any trailing separator
// from a backend directory path.
func (p *PathPrefixer) StripDirectoryPath(path string) string {
	return strings.TrimSuffix(p.StripFilePath(path), p.separator)
}

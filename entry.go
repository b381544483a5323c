package flystorage

import "time"

// Visibility is an abstracted, backend-mapped permission tag standing in
// for POSIX modes, ACLs, or object-store canned policies.
type Visibility string

const (
	// Private means the file is only accessible by authenticated users.
	Private Visibility = "private"

	// Public means the file is publicly accessible.
	Public Visibility = "public"

	// VisibilityUnknown is reported by backends that track no permission
	// concept.
	VisibilityUnknown Visibility = "unknown"
)

// EntryType discriminates files from directories in a StatEntry.
type EntryType string

const (
	EntryTypeFile      EntryType = "file"
	EntryTypeDirectory EntryType = "directory"
)

// StatEntry describes a file or directory. Adapters construct a fresh entry
// on every stat and list call; entries are never cached by the core and are
// immutable once returned.
//
// Size and MimeType are only meaningful for files. A zero LastModified
// means the backend did not report one.
type StatEntry struct {
	// Path is the canonical relative path of the entry, already stripped of
	// any backend prefix.
	Path string

	// Type discriminates files from directories.
	Type EntryType

	// Size is the byte count for files.
	Size int64

	// LastModified is the modification time, if the backend reports one.
	LastModified time.Time

	// MimeType is the content type for files, if known.
	MimeType string

	// Visibility is the abstracted permission tag, if the backend tracks one.
	Visibility Visibility

	// Extra carries backend specific metadata verbatim.
	Extra map[string]string
}

// IsFile reports whether the entry describes a file.
func (e StatEntry) IsFile() bool {
	return e.Type == EntryTypeFile
}

// IsDir reports whether the entry describes a directory.
func (e StatEntry) IsDir() bool {
	return e.Type == EntryTypeDirectory
}

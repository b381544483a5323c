package flystorage

import (
	"context"
	"io"
	"iter"
)

// StorageAdapter is the boundary every backend implements. The FileStorage
// façade is the only intended caller: it hands adapters canonical paths and
// fully merged option bags, and translates whatever they return into the
// typed error taxonomy.
//
// Adapters receive backend-relative canonical paths and must return
// canonical paths in results, stripping any configured prefix themselves
// (PathPrefixer exists for exactly this).
type StorageAdapter interface {
	// Write persists exactly the bytes of contents at path, creating any
	// implied parent hierarchy unless the backend is flat.
	Write(ctx context.Context, path string, contents io.Reader, opts Options) error

	// Read returns a byte stream. A missing path must surface a cause that
	// matches ErrNotExist.
	Read(ctx context.Context, path string, opts Options) (io.ReadCloser, error)

	// DeleteFile removes a file. Deleting a non-existent file is not an error.
	DeleteFile(ctx context.Context, path string, opts Options) error

	// CreateDirectory is idempotent. Flat backends may treat it as a no-op
	// or a placeholder-object write.
	CreateDirectory(ctx context.Context, path string, opts Options) error

	// DeleteDirectory recursively removes all descendants. Idempotent.
	DeleteDirectory(ctx context.Context, path string, opts Options) error

	// CopyFile fails when from does not exist.
	CopyFile(ctx context.Context, from, to string, opts Options) error

	// MoveFile fails when from does not exist.
	MoveFile(ctx context.Context, from, to string, opts Options) error

	// Stat fails with an ErrNotExist cause when the path does not exist.
	Stat(ctx context.Context, path string, opts Options) (StatEntry, error)

	// List returns a lazy sequence of entries under path. Shallow listings
	// yield only immediate children; deep listings yield every descendant
	// file plus a directory entry for every intermediate level, even on
	// backends with no native directory objects.
	List(ctx context.Context, path string, opts Options) iter.Seq2[StatEntry, error]

	// ChangeVisibility may fail with an ErrNotSupported cause on backends
	// with no permission concept.
	ChangeVisibility(ctx context.Context, path string, visibility Visibility) error

	// Visibility may fail with an ErrNotSupported cause on backends with no
	// permission concept.
	Visibility(ctx context.Context, path string) (Visibility, error)

	// FileExists never fails for "does not exist"; it returns false.
	FileExists(ctx context.Context, path string) (bool, error)

	// DirectoryExists never fails for "does not exist"; it returns false.
	DirectoryExists(ctx context.Context, path string) (bool, error)

	// PublicURL returns a URL usable for unauthenticated retrieval.
	PublicURL(ctx context.Context, path string, opts Options) (string, error)

	// TemporaryURL returns a URL usable for unauthenticated retrieval until
	// opts.ExpiresAt, which the façade guarantees is set.
	TemporaryURL(ctx context.Context, path string, opts Options) (string, error)

	// Checksum returns the hex-encoded checksum for opts.Algo. Backends that
	// cannot produce one natively return a cause matching
	// ErrChecksumUnavailable, and the façade computes it by streaming.
	Checksum(ctx context.Context, path string, opts Options) (string, error)
}

// PreparedUpload describes a client-direct upload: the HTTP method and URL
// to use and the headers to send.
type PreparedUpload struct {
	Method  string
	URL     string
	Headers map[string]string
}

// PreparedUploader is an optional adapter capability for issuing
// client-direct upload descriptors. Check with a type assertion:
//
//	if uploader, ok := adapter.(flystorage.PreparedUploader); ok {
//	    upload, err := uploader.PrepareUpload(ctx, "inbox/report.pdf", opts)
//	}
//
// The FileStorage façade performs this assertion itself and fails with
// CodeUnableToPrepareUploadRequest wrapping ErrNotSupported when neither an
// injected strategy nor the adapter provides the capability.
type PreparedUploader interface {
	PrepareUpload(ctx context.Context, path string, opts Options) (PreparedUpload, error)
}

// AdapterWrapper is implemented by decorator adapters (read-only, caching,
// logging) that transparently wrap another adapter. Unwrap gives access to
// the next adapter in the chain.
type AdapterWrapper interface {
	Unwrap() StorageAdapter
}

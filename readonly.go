package flystorage

import (
	"context"
	"errors"
	"io"
	"iter"
)

// ErrReadOnly is returned when a write operation is attempted on a
// read-only adapter.
var ErrReadOnly = errors.New("storage is read-only")

// ReadOnlyAdapter wraps a StorageAdapter to prevent all write operations.
// It is a transparent decorator: any adapter-shaped component may wrap
// another, so read-only protection stacks with caching and logging in any
// order.
//
//	adapter := flystorage.NewReadOnlyAdapter(inner)
//	storage := flystorage.NewFileStorage(adapter)
type ReadOnlyAdapter struct {
	inner StorageAdapter
	opts  ReadOnlyOptions
}

// ReadOnlyOptions configures which write operations stay permitted.
type ReadOnlyOptions struct {
	// AllowCreateDirectory permits directory creation, useful for staging
	// areas.
	AllowCreateDirectory bool

	// AllowDelete permits file deletion. Use with caution.
	AllowDelete bool
}

// ReadOnlyOption configures a ReadOnlyAdapter.
type ReadOnlyOption func(*ReadOnlyOptions)

// WithAllowCreateDirectory permits directory creation in read-only mode.
func WithAllowCreateDirectory(allow bool) ReadOnlyOption {
	return func(o *ReadOnlyOptions) { o.AllowCreateDirectory = allow }
}

// WithAllowDelete permits file deletion in read-only mode.
func WithAllowDelete(allow bool) ReadOnlyOption {
	return func(o *ReadOnlyOptions) { o.AllowDelete = allow }
}

// NewReadOnlyAdapter creates a read-only wrapper around an adapter.
func NewReadOnlyAdapter(inner StorageAdapter, opts ...ReadOnlyOption) *ReadOnlyAdapter {
	var options ReadOnlyOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &ReadOnlyAdapter{inner: inner, opts: options}
}

// Unwrap returns the wrapped adapter.
func (r *ReadOnlyAdapter) Unwrap() StorageAdapter {
	return r.inner
}

func (r *ReadOnlyAdapter) blocked(op, path string) error {
	return &PathError{Op: op, Path: path, Err: ErrReadOnly}
}

func (r *ReadOnlyAdapter) Write(ctx context.Context, path string, contents io.Reader, opts Options) error {
	return r.blocked("write", path)
}

func (r *ReadOnlyAdapter) Read(ctx context.Context, path string, opts Options) (io.ReadCloser, error) {
	return r.inner.Read(ctx, path, opts)
}

func (r *ReadOnlyAdapter) DeleteFile(ctx context.Context, path string, opts Options) error {
	if !r.opts.AllowDelete {
		return r.blocked("delete", path)
	}
	return r.inner.DeleteFile(ctx, path, opts)
}

func (r *ReadOnlyAdapter) CreateDirectory(ctx context.Context, path string, opts Options) error {
	if !r.opts.AllowCreateDirectory {
		return r.blocked("create_directory", path)
	}
	return r.inner.CreateDirectory(ctx, path, opts)
}

func (r *ReadOnlyAdapter) DeleteDirectory(ctx context.Context, path string, opts Options) error {
	return r.blocked("delete_directory", path)
}

func (r *ReadOnlyAdapter) CopyFile(ctx context.Context, from, to string, opts Options) error {
	return r.blocked("copy", to)
}

func (r *ReadOnlyAdapter) MoveFile(ctx context.Context, from, to string, opts Options) error {
	return r.blocked("move", to)
}

func (r *ReadOnlyAdapter) Stat(ctx context.Context, path string, opts Options) (StatEntry, error) {
	return r.inner.Stat(ctx, path, opts)
}

func (r *ReadOnlyAdapter) List(ctx context.Context, path string, opts Options) iter.Seq2[StatEntry, error] {
	return r.inner.List(ctx, path, opts)
}

func (r *ReadOnlyAdapter) ChangeVisibility(ctx context.Context, path string, visibility Visibility) error {
	return r.blocked("change_visibility", path)
}

func (r *ReadOnlyAdapter) Visibility(ctx context.Context, path string) (Visibility, error) {
	return r.inner.Visibility(ctx, path)
}

func (r *ReadOnlyAdapter) FileExists(ctx context.Context, path string) (bool, error) {
	return r.inner.FileExists(ctx, path)
}

func (r *ReadOnlyAdapter) DirectoryExists(ctx context.Context, path string) (bool, error) {
	return r.inner.DirectoryExists(ctx, path)
}

func (r *ReadOnlyAdapter) PublicURL(ctx context.Context, path string, opts Options) (string, error) {
	return r.inner.PublicURL(ctx, path, opts)
}

func (r *ReadOnlyAdapter) TemporaryURL(ctx context.Context, path string, opts Options) (string, error) {
	return r.inner.TemporaryURL(ctx, path, opts)
}

func (r *ReadOnlyAdapter) Checksum(ctx context.Context, path string, opts Options) (string, error) {
	return r.inner.Checksum(ctx, path, opts)
}

// PrepareUpload is blocked: upload descriptors enable writes.
func (r *ReadOnlyAdapter) PrepareUpload(ctx context.Context, path string, opts Options) (PreparedUpload, error) {
	return PreparedUpload{}, r.blocked("prepare_upload", path)
}

// IsReadOnlyError checks if an error is due to read-only restrictions.
func IsReadOnlyError(err error) bool {
	return errors.Is(err, ErrReadOnly)
}

var (
	_ StorageAdapter   = (*ReadOnlyAdapter)(nil)
	_ PreparedUploader = (*ReadOnlyAdapter)(nil)
	_ AdapterWrapper   = (*ReadOnlyAdapter)(nil)
)

package flystorage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// FileStorage is the public entry point for file operations. It validates
// and normalizes paths, merges call-site options over configured per
// category defaults, runs each adapter call under a deadline envelope, and
// maps every adapter failure into the typed error taxonomy.
//
// FileStorage holds no mutable state beyond its immutable configuration and
// is safe for concurrent use. It never serializes concurrent calls for the
// same path; last-writer-wins semantics are backend-defined.
type FileStorage struct {
	adapter  StorageAdapter
	uploads  PreparedUploader
	defaults configuredDefaults
	staged   *Visibility
	noACLs   bool
}

type configuredDefaults struct {
	writes        []Option
	moves         []Option
	copies        []Option
	visibility    []Option
	publicURLs    []Option
	temporaryURLs []Option
	checksums     []Option
	mimeTypes     []Option
	list          []Option
	timeout       time.Duration
}

// StorageOption configures a FileStorage at construction time.
type StorageOption func(*FileStorage)

// WithWriteDefaults sets default options merged under every write call.
func WithWriteDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.writes = opts }
}

// WithMoveDefaults sets default options merged under every move call.
func WithMoveDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.moves = opts }
}

// WithCopyDefaults sets default options merged under every copy call.
func WithCopyDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.copies = opts }
}

// WithVisibilityDefaults sets default options merged under visibility calls.
func WithVisibilityDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.visibility = opts }
}

// WithPublicURLDefaults sets default options merged under public URL calls.
func WithPublicURLDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.publicURLs = opts }
}

// WithTemporaryURLDefaults sets default options merged under temporary URL calls.
func WithTemporaryURLDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.temporaryURLs = opts }
}

// WithChecksumDefaults sets default options merged under checksum calls.
func WithChecksumDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.checksums = opts }
}

// WithMimeTypeDefaults sets default options merged under mime type calls.
func WithMimeTypeDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.mimeTypes = opts }
}

// WithListDefaults sets default options merged under every list call.
func WithListDefaults(opts ...Option) StorageOption {
	return func(s *FileStorage) { s.defaults.list = opts }
}

// WithOperationTimeout bounds every operation with a default deadline.
// A per-call WithTimeout option overrides it.
func WithOperationTimeout(timeout time.Duration) StorageOption {
	return func(s *FileStorage) { s.defaults.timeout = timeout }
}

// WithPreparedUploads injects a strategy for client-direct uploads, used in
// preference to the adapter's own PreparedUploader capability.
func WithPreparedUploads(uploader PreparedUploader) StorageOption {
	return func(s *FileStorage) { s.uploads = uploader }
}

// WithStagedVisibility configures a fallback for backends with no
// permission concept: Visibility returns the staged value and
// ChangeVisibility becomes a no-op, without calling the adapter.
func WithStagedVisibility(visibility Visibility) StorageOption {
	return func(s *FileStorage) { s.staged = &visibility }
}

// WithUnsupportedVisibility configures visibility calls to fail with an
// ErrNotSupported cause without calling the adapter.
func WithUnsupportedVisibility() StorageOption {
	return func(s *FileStorage) { s.noACLs = true }
}

// NewFileStorage wraps an adapter in the façade. The configuration is
// immutable after construction.
func NewFileStorage(adapter StorageAdapter, opts ...StorageOption) *FileStorage {
	s := &FileStorage{adapter: adapter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Adapter returns the wrapped adapter.
func (s *FileStorage) Adapter() StorageAdapter {
	return s.adapter
}

// resolve merges call-site options over configured category defaults and
// applies the configured operation timeout when no per-call one is given.
func (s *FileStorage) resolve(defaults []Option, opts []Option) Options {
	merged := make([]Option, 0, len(defaults)+len(opts))
	merged = append(merged, defaults...)
	merged = append(merged, opts...)
	o := ResolveOptions(merged...)
	if o.Timeout == 0 {
		o.Timeout = s.defaults.timeout
	}
	return o
}

// opContext derives the deadline envelope for one operation. The caller's
// context and the merged timeout are combined; whichever triggers first
// cancels the call.
func (s *FileStorage) opContext(ctx context.Context, o Options) (context.Context, context.CancelFunc) {
	if o.Timeout > 0 {
		return context.WithTimeout(ctx, o.Timeout)
	}
	return ctx, func() {}
}

func (s *FileStorage) wrap(code ErrorCode, path string, err error, kv ...any) error {
	var meta map[string]any
	if len(kv) > 0 {
		meta = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			meta[kv[i].(string)] = kv[i+1]
		}
	}
	return &StorageError{Code: code, Path: path, Context: meta, Err: err}
}

// Write persists the bytes of contents at path. If contents implements
// io.Closer it is closed on both success and failure; the write never
// leaves a dangling open handle. Options are merged deterministically
// before any I/O begins.
func (s *FileStorage) Write(ctx context.Context, path string, contents io.Reader, opts ...Option) error {
	o := s.resolve(s.defaults.writes, opts)

	err := func() error {
		opCtx, cancel := s.opContext(ctx, o)
		defer cancel()

		p, err := NormalizePath(path)
		if err != nil {
			return err
		}
		if err := opCtx.Err(); err != nil {
			return s.wrap(CodeUnableToWriteFile, p, err)
		}
		if err := s.adapter.Write(opCtx, p, &contextReader{ctx: opCtx, r: contents}, o); err != nil {
			return s.wrap(CodeUnableToWriteFile, p, err, "visibility", string(o.Visibility), "mimeType", o.MimeType)
		}
		return nil
	}()

	if closer, ok := contents.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = s.wrap(CodeUnableToWriteFile, path, cerr)
		}
	}
	return err
}

// WriteString writes string contents at path.
func (s *FileStorage) WriteString(ctx context.Context, path, contents string, opts ...Option) error {
	return s.Write(ctx, path, strings.NewReader(contents), opts...)
}

// WriteBytes writes byte contents at path.
func (s *FileStorage) WriteBytes(ctx context.Context, path string, contents []byte, opts ...Option) error {
	return s.Write(ctx, path, bytes.NewReader(contents), opts...)
}

// Read returns a stream of the file contents. Errors surfacing mid-flight
// from the backend stream are re-emitted as typed read errors on the
// returned stream without buffering the file.
func (s *FileStorage) Read(ctx context.Context, path string, opts ...Option) (io.ReadCloser, error) {
	o := s.resolve(nil, opts)
	opCtx, cancel := s.opContext(ctx, o)

	p, err := NormalizePath(path)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := opCtx.Err(); err != nil {
		cancel()
		return nil, s.wrap(CodeUnableToReadFile, p, err)
	}

	rc, err := s.adapter.Read(opCtx, p, o)
	if err != nil {
		cancel()
		return nil, s.wrap(CodeUnableToReadFile, p, err)
	}
	return &readStream{rc: rc, path: p, cancel: cancel}, nil
}

// ReadAll reads the whole file into memory. Use for small files only.
func (s *FileStorage) ReadAll(ctx context.Context, path string, opts ...Option) ([]byte, error) {
	rc, err := s.Read(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DeleteFile removes a file. Deleting a non-existent file is not an error.
func (s *FileStorage) DeleteFile(ctx context.Context, path string, opts ...Option) error {
	o := s.resolve(nil, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if err := opCtx.Err(); err != nil {
		return s.wrap(CodeUnableToDeleteFile, p, err)
	}
	if err := s.adapter.DeleteFile(opCtx, p, o); err != nil {
		return s.wrap(CodeUnableToDeleteFile, p, err)
	}
	return nil
}

// CreateDirectory creates a directory. Idempotent.
func (s *FileStorage) CreateDirectory(ctx context.Context, path string, opts ...Option) error {
	o := s.resolve(s.defaults.writes, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if err := opCtx.Err(); err != nil {
		return s.wrap(CodeUnableToCreateDirectory, p, err)
	}
	if err := s.adapter.CreateDirectory(opCtx, p, o); err != nil {
		return s.wrap(CodeUnableToCreateDirectory, p, err)
	}
	return nil
}

// DeleteDirectory removes a directory and all its descendants. Idempotent.
func (s *FileStorage) DeleteDirectory(ctx context.Context, path string, opts ...Option) error {
	o := s.resolve(nil, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if err := opCtx.Err(); err != nil {
		return s.wrap(CodeUnableToDeleteDirectory, p, err)
	}
	if err := s.adapter.DeleteDirectory(opCtx, p, o); err != nil {
		return s.wrap(CodeUnableToDeleteDirectory, p, err)
	}
	return nil
}

// CopyFile copies a file. Fails when the source does not exist. With
// WithRetainVisibility and no explicit visibility, the source visibility is
// carried over to the destination.
func (s *FileStorage) CopyFile(ctx context.Context, from, to string, opts ...Option) error {
	o := s.resolve(s.defaults.copies, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	src, err := NormalizePath(from)
	if err != nil {
		return err
	}
	dst, err := NormalizePath(to)
	if err != nil {
		return err
	}
	if err := opCtx.Err(); err != nil {
		return s.wrap(CodeUnableToCopyFile, src, err, "to", dst)
	}
	o, err = s.resolveRetainedVisibility(opCtx, src, o)
	if err != nil {
		return s.wrap(CodeUnableToCopyFile, src, err, "to", dst)
	}
	if err := s.adapter.CopyFile(opCtx, src, dst, o); err != nil {
		return s.wrap(CodeUnableToCopyFile, src, err, "to", dst)
	}
	return nil
}

// MoveFile moves a file. Fails when the source does not exist. Honors
// WithRetainVisibility like CopyFile.
func (s *FileStorage) MoveFile(ctx context.Context, from, to string, opts ...Option) error {
	o := s.resolve(s.defaults.moves, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	src, err := NormalizePath(from)
	if err != nil {
		return err
	}
	dst, err := NormalizePath(to)
	if err != nil {
		return err
	}
	if err := opCtx.Err(); err != nil {
		return s.wrap(CodeUnableToMoveFile, src, err, "to", dst)
	}
	o, err = s.resolveRetainedVisibility(opCtx, src, o)
	if err != nil {
		return s.wrap(CodeUnableToMoveFile, src, err, "to", dst)
	}
	if err := s.adapter.MoveFile(opCtx, src, dst, o); err != nil {
		return s.wrap(CodeUnableToMoveFile, src, err, "to", dst)
	}
	return nil
}

// resolveRetainedVisibility resolves the source visibility into the option
// bag for copy and move when requested and not explicitly set. Backends
// without a permission concept are left alone.
func (s *FileStorage) resolveRetainedVisibility(ctx context.Context, src string, o Options) (Options, error) {
	if !o.RetainVisibility || o.Visibility != "" {
		return o, nil
	}
	if s.staged != nil {
		o.Visibility = *s.staged
		return o, nil
	}
	if s.noACLs {
		return o, nil
	}
	visibility, err := s.adapter.Visibility(ctx, src)
	if err != nil {
		if errors.Is(err, ErrNotSupported) {
			return o, nil
		}
		return o, err
	}
	o.Visibility = visibility
	return o, nil
}

// Stat returns the metadata entry for path.
func (s *FileStorage) Stat(ctx context.Context, path string, opts ...Option) (StatEntry, error) {
	return s.stat(ctx, path, CodeUnableToGetStat, nil, opts)
}

func (s *FileStorage) stat(ctx context.Context, path string, code ErrorCode, defaults []Option, opts []Option) (StatEntry, error) {
	o := s.resolve(defaults, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return StatEntry{}, err
	}
	if err := opCtx.Err(); err != nil {
		return StatEntry{}, s.wrap(code, p, err)
	}
	entry, err := s.adapter.Stat(opCtx, p, o)
	if err != nil {
		return StatEntry{}, s.wrap(code, p, err)
	}
	return entry, nil
}

// MimeType returns the content type of the file at path.
func (s *FileStorage) MimeType(ctx context.Context, path string, opts ...Option) (string, error) {
	entry, err := s.stat(ctx, path, CodeUnableToGetMimeType, s.defaults.mimeTypes, opts)
	if err != nil {
		return "", err
	}
	if entry.MimeType == "" {
		return "", s.wrap(CodeUnableToGetMimeType, entry.Path, ErrNotSupported)
	}
	return entry.MimeType, nil
}

// LastModified returns the modification time of the file at path.
func (s *FileStorage) LastModified(ctx context.Context, path string, opts ...Option) (time.Time, error) {
	entry, err := s.stat(ctx, path, CodeUnableToGetLastModified, nil, opts)
	if err != nil {
		return time.Time{}, err
	}
	if entry.LastModified.IsZero() {
		return time.Time{}, s.wrap(CodeUnableToGetLastModified, entry.Path, ErrNotSupported)
	}
	return entry.LastModified, nil
}

// FileSize returns the byte size of the file at path.
func (s *FileStorage) FileSize(ctx context.Context, path string, opts ...Option) (int64, error) {
	entry, err := s.stat(ctx, path, CodeUnableToGetFileSize, nil, opts)
	if err != nil {
		return 0, err
	}
	if !entry.IsFile() {
		return 0, s.wrap(CodeUnableToGetFileSize, entry.Path, ErrIsDir)
	}
	return entry.Size, nil
}

// FileExists reports whether a file exists at path. A missing file is a
// false answer, never an error.
func (s *FileStorage) FileExists(ctx context.Context, path string, opts ...Option) (bool, error) {
	o := s.resolve(nil, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return false, err
	}
	if err := opCtx.Err(); err != nil {
		return false, s.wrap(CodeUnableToCheckFileExistence, p, err)
	}
	exists, err := s.adapter.FileExists(opCtx, p)
	if err != nil {
		return false, s.wrap(CodeUnableToCheckFileExistence, p, err)
	}
	return exists, nil
}

// DirectoryExists reports whether a directory exists at path.
func (s *FileStorage) DirectoryExists(ctx context.Context, path string, opts ...Option) (bool, error) {
	o := s.resolve(nil, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return false, err
	}
	if err := opCtx.Err(); err != nil {
		return false, s.wrap(CodeUnableToCheckDirExistence, p, err)
	}
	exists, err := s.adapter.DirectoryExists(opCtx, p)
	if err != nil {
		return false, s.wrap(CodeUnableToCheckDirExistence, p, err)
	}
	return exists, nil
}

// List returns a lazy directory listing. Deep listing is off by default;
// enable it with WithDeep(true). Failures surfacing from the backend during
// iteration are wrapped as listing errors carrying the path and deep flag.
func (s *FileStorage) List(ctx context.Context, path string, opts ...Option) (*DirectoryListing, error) {
	o := s.resolve(s.defaults.list, opts)
	opCtx, cancel := s.opContext(ctx, o)

	p, err := NormalizePath(path)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := opCtx.Err(); err != nil {
		cancel()
		return nil, s.wrap(CodeUnableToListDirectory, p, err, "deep", o.Deep)
	}

	inner := s.adapter.List(opCtx, p, o)
	seq := func(yield func(StatEntry, error) bool) {
		defer cancel()
		for entry, err := range inner {
			if err != nil {
				yield(StatEntry{}, s.wrap(CodeUnableToListDirectory, p, err, "deep", o.Deep))
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
	return NewDirectoryListing(seq), nil
}

// ChangeVisibility updates the visibility tag of the file at path. When a
// visibility fallback is configured the adapter is never called.
func (s *FileStorage) ChangeVisibility(ctx context.Context, path string, visibility Visibility, opts ...Option) error {
	o := s.resolve(s.defaults.visibility, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if s.staged != nil {
		return nil
	}
	if s.noACLs {
		return s.wrap(CodeUnableToSetVisibility, p, ErrNotSupported)
	}
	if err := opCtx.Err(); err != nil {
		return s.wrap(CodeUnableToSetVisibility, p, err)
	}
	if err := s.adapter.ChangeVisibility(opCtx, p, visibility); err != nil {
		return s.wrap(CodeUnableToSetVisibility, p, err, "visibility", string(visibility))
	}
	return nil
}

// Visibility returns the visibility tag of the file at path. When a staged
// fallback is configured the staged value is returned without calling the
// adapter.
func (s *FileStorage) Visibility(ctx context.Context, path string, opts ...Option) (Visibility, error) {
	o := s.resolve(s.defaults.visibility, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	if s.staged != nil {
		return *s.staged, nil
	}
	if s.noACLs {
		return "", s.wrap(CodeUnableToGetVisibility, p, ErrNotSupported)
	}
	if err := opCtx.Err(); err != nil {
		return "", s.wrap(CodeUnableToGetVisibility, p, err)
	}
	visibility, err := s.adapter.Visibility(opCtx, p)
	if err != nil {
		return "", s.wrap(CodeUnableToGetVisibility, p, err)
	}
	return visibility, nil
}

// PublicURL returns a URL usable for unauthenticated retrieval.
func (s *FileStorage) PublicURL(ctx context.Context, path string, opts ...Option) (string, error) {
	o := s.resolve(s.defaults.publicURLs, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	if err := opCtx.Err(); err != nil {
		return "", s.wrap(CodeUnableToGetPublicURL, p, err)
	}
	url, err := s.adapter.PublicURL(opCtx, p, o)
	if err != nil {
		return "", s.wrap(CodeUnableToGetPublicURL, p, err)
	}
	return url, nil
}

// TemporaryURL returns a URL usable for unauthenticated retrieval until the
// expiry, which is required.
func (s *FileStorage) TemporaryURL(ctx context.Context, path string, opts ...Option) (string, error) {
	o := s.resolve(s.defaults.temporaryURLs, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	if o.ExpiresAt.IsZero() {
		return "", s.wrap(CodeUnableToGetTemporaryURL, p, errors.New("an expiry is required for temporary URLs"))
	}
	if err := opCtx.Err(); err != nil {
		return "", s.wrap(CodeUnableToGetTemporaryURL, p, err)
	}
	url, err := s.adapter.TemporaryURL(opCtx, p, o)
	if err != nil {
		return "", s.wrap(CodeUnableToGetTemporaryURL, p, err, "expiresAt", o.ExpiresAt)
	}
	return url, nil
}

// PrepareUpload returns a client-direct upload descriptor from the injected
// strategy or the adapter's optional capability. With neither present it
// fails with an ErrNotSupported cause so callers can detect the missing
// capability at the error level.
func (s *FileStorage) PrepareUpload(ctx context.Context, path string, opts ...Option) (PreparedUpload, error) {
	o := s.resolve(s.defaults.writes, opts)
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return PreparedUpload{}, err
	}
	if o.ExpiresAt.IsZero() {
		return PreparedUpload{}, s.wrap(CodeUnableToPrepareUploadRequest, p, errors.New("an expiry is required for prepared uploads"))
	}
	if err := opCtx.Err(); err != nil {
		return PreparedUpload{}, s.wrap(CodeUnableToPrepareUploadRequest, p, err)
	}

	uploader := s.uploads
	if uploader == nil {
		uploader, _ = s.adapter.(PreparedUploader)
	}
	if uploader == nil {
		return PreparedUpload{}, s.wrap(CodeUnableToPrepareUploadRequest, p, ErrNotSupported)
	}
	upload, err := uploader.PrepareUpload(opCtx, p, o)
	if err != nil {
		return PreparedUpload{}, s.wrap(CodeUnableToPrepareUploadRequest, p, err, "expiresAt", o.ExpiresAt)
	}
	return upload, nil
}

// Checksum returns the hex-encoded checksum of the file at path. The
// backend is asked for a native answer first; a backend reporting
// ErrChecksumUnavailable triggers a streaming fallback that produces the
// exact digest a native answer would, so callers observe uniform behavior
// regardless of backend capability.
func (s *FileStorage) Checksum(ctx context.Context, path string, opts ...Option) (string, error) {
	o := s.resolve(s.defaults.checksums, opts)
	if o.Algo == "" {
		o.Algo = DefaultChecksumAlgorithm
	}
	opCtx, cancel := s.opContext(ctx, o)
	defer cancel()

	p, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	if err := opCtx.Err(); err != nil {
		return "", s.wrap(CodeUnableToGetChecksum, p, err)
	}

	sum, err := s.adapter.Checksum(opCtx, p, o)
	if err == nil {
		return sum, nil
	}
	if !errors.Is(err, ErrChecksumUnavailable) {
		return "", s.wrap(CodeUnableToGetChecksum, p, err, "algo", string(o.Algo))
	}

	rc, err := s.adapter.Read(opCtx, p, o)
	if err != nil {
		return "", s.wrap(CodeUnableToGetChecksum, p, err, "algo", string(o.Algo))
	}
	defer rc.Close()
	sum, err = CalculateChecksum(&contextReader{ctx: opCtx, r: rc}, o.Algo)
	if err != nil {
		return "", s.wrap(CodeUnableToGetChecksum, p, err, "algo", string(o.Algo))
	}
	return sum, nil
}

// contextReader aborts a streaming transfer when the operation context is
// cancelled, turning every chunk boundary into a cancellation checkpoint.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// readStream re-types errors surfacing mid-flight from a backend read
// stream so callers never observe an unlabeled I/O error, and releases the
// deadline envelope on close.
type readStream struct {
	rc     io.ReadCloser
	path   string
	cancel context.CancelFunc
}

func (r *readStream) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	if err != nil && err != io.EOF {
		err = &StorageError{Code: CodeUnableToReadFile, Path: r.path, Err: err}
	}
	return n, err
}

func (r *readStream) Close() error {
	defer r.cancel()
	return r.rc.Close()
}

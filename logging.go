package flystorage

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"time"
)

// LoggingAdapter emits a structured log record for every operation passing
// through it: operation name, path, duration and outcome. Successful calls
// log at debug level, failures at warn. Stack it around any adapter; the
// library itself stays silent without it.
type LoggingAdapter struct {
	inner StorageAdapter
	log   *slog.Logger
}

// NewLoggingAdapter wraps an adapter with operation logging. A nil logger
// uses slog.Default.
func NewLoggingAdapter(inner StorageAdapter, logger *slog.Logger) *LoggingAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingAdapter{inner: inner, log: logger}
}

// Unwrap returns the wrapped adapter.
func (a *LoggingAdapter) Unwrap() StorageAdapter {
	return a.inner
}

func (a *LoggingAdapter) record(ctx context.Context, op, path string, start time.Time, err error) {
	attrs := []any{
		slog.String("op", op),
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		a.log.WarnContext(ctx, "storage operation failed", attrs...)
		return
	}
	a.log.DebugContext(ctx, "storage operation", attrs...)
}

func (a *LoggingAdapter) Write(ctx context.Context, path string, contents io.Reader, opts Options) error {
	start := time.Now()
	err := a.inner.Write(ctx, path, contents, opts)
	a.record(ctx, "write", path, start, err)
	return err
}

func (a *LoggingAdapter) Read(ctx context.Context, path string, opts Options) (io.ReadCloser, error) {
	start := time.Now()
	rc, err := a.inner.Read(ctx, path, opts)
	a.record(ctx, "read", path, start, err)
	return rc, err
}

func (a *LoggingAdapter) DeleteFile(ctx context.Context, path string, opts Options) error {
	start := time.Now()
	err := a.inner.DeleteFile(ctx, path, opts)
	a.record(ctx, "delete_file", path, start, err)
	return err
}

func (a *LoggingAdapter) CreateDirectory(ctx context.Context, path string, opts Options) error {
	start := time.Now()
	err := a.inner.CreateDirectory(ctx, path, opts)
	a.record(ctx, "create_directory", path, start, err)
	return err
}

func (a *LoggingAdapter) DeleteDirectory(ctx context.Context, path string, opts Options) error {
	start := time.Now()
	err := a.inner.DeleteDirectory(ctx, path, opts)
	a.record(ctx, "delete_directory", path, start, err)
	return err
}

func (a *LoggingAdapter) CopyFile(ctx context.Context, from, to string, opts Options) error {
	start := time.Now()
	err := a.inner.CopyFile(ctx, from, to, opts)
	a.record(ctx, "copy_file", from, start, err)
	return err
}

func (a *LoggingAdapter) MoveFile(ctx context.Context, from, to string, opts Options) error {
	start := time.Now()
	err := a.inner.MoveFile(ctx, from, to, opts)
	a.record(ctx, "move_file", from, start, err)
	return err
}

func (a *LoggingAdapter) Stat(ctx context.Context, path string, opts Options) (StatEntry, error) {
	start := time.Now()
	entry, err := a.inner.Stat(ctx, path, opts)
	a.record(ctx, "stat", path, start, err)
	return entry, err
}

func (a *LoggingAdapter) List(ctx context.Context, path string, opts Options) iter.Seq2[StatEntry, error] {
	start := time.Now()
	inner := a.inner.List(ctx, path, opts)
	return func(yield func(StatEntry, error) bool) {
		var iterErr error
		for entry, err := range inner {
			if err != nil {
				iterErr = err
			}
			if !yield(entry, err) {
				break
			}
		}
		a.record(ctx, "list", path, start, iterErr)
	}
}

func (a *LoggingAdapter) ChangeVisibility(ctx context.Context, path string, visibility Visibility) error {
	start := time.Now()
	err := a.inner.ChangeVisibility(ctx, path, visibility)
	a.record(ctx, "change_visibility", path, start, err)
	return err
}

func (a *LoggingAdapter) Visibility(ctx context.Context, path string) (Visibility, error) {
	start := time.Now()
	visibility, err := a.inner.Visibility(ctx, path)
	a.record(ctx, "visibility", path, start, err)
	return visibility, err
}

func (a *LoggingAdapter) FileExists(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	exists, err := a.inner.FileExists(ctx, path)
	a.record(ctx, "file_exists", path, start, err)
	return exists, err
}

func (a *LoggingAdapter) DirectoryExists(ctx context.Context, path string) (bool, error) {
	start := time.Now()
	exists, err := a.inner.DirectoryExists(ctx, path)
	a.record(ctx, "directory_exists", path, start, err)
	return exists, err
}

func (a *LoggingAdapter) PublicURL(ctx context.Context, path string, opts Options) (string, error) {
	start := time.Now()
	url, err := a.inner.PublicURL(ctx, path, opts)
	a.record(ctx, "public_url", path, start, err)
	return url, err
}

func (a *LoggingAdapter) TemporaryURL(ctx context.Context, path string, opts Options) (string, error) {
	start := time.Now()
	url, err := a.inner.TemporaryURL(ctx, path, opts)
	a.record(ctx, "temporary_url", path, start, err)
	return url, err
}

func (a *LoggingAdapter) Checksum(ctx context.Context, path string, opts Options) (string, error) {
	start := time.Now()
	sum, err := a.inner.Checksum(ctx, path, opts)
	a.record(ctx, "checksum", path, start, err)
	return sum, err
}

var (
	_ StorageAdapter = (*LoggingAdapter)(nil)
	_ AdapterWrapper = (*LoggingAdapter)(nil)
)

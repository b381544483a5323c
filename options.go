package flystorage

import "time"

// Option configures a single storage operation.
type Option func(*Options)

// Options is the merged option bag handed to adapters. The storage layer
// reads only the recognized fields below; unrecognized keys ride in Extra
// and are forwarded to the backend verbatim, never rejected.
//
// Configured per-category defaults are applied before call-site options, so
// an option the caller supplies always wins. An option the caller never
// supplies leaves the configured default untouched; passing an explicit
// zero value (for example WithVisibility("")) is the way to unset one.
type Options struct {
	// Visibility requested for the written or copied file.
	Visibility Visibility

	// DirectoryVisibility requested for directories implied by the operation.
	DirectoryVisibility Visibility

	// MimeType declares the content type of written content.
	MimeType string

	// Size declares the byte length of written content when known upfront.
	Size int64

	// CacheControl sets the Cache-Control header on backends that serve HTTP.
	CacheControl string

	// RetainVisibility asks copy and move operations to carry the source
	// visibility over to the destination when no explicit visibility is given.
	RetainVisibility bool

	// ExpiresAt bounds the validity of temporary URLs and prepared uploads.
	ExpiresAt time.Time

	// Algo selects the checksum algorithm. Defaults to MD5.
	Algo ChecksumAlgorithm

	// Deep selects recursive directory listing.
	Deep bool

	// Timeout bounds the whole operation. Zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration

	// Extra carries unrecognized options through to the backend.
	Extra map[string]any
}

// ResolveOptions merges option sets in order. Later options win.
func ResolveOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithVisibility sets the visibility of the file being written or copied.
func WithVisibility(visibility Visibility) Option {
	return func(o *Options) {
		o.Visibility = visibility
	}
}

// WithDirectoryVisibility sets the visibility for directories implied by the
// operation.
func WithDirectoryVisibility(visibility Visibility) Option {
	return func(o *Options) {
		o.DirectoryVisibility = visibility
	}
}

// WithMimeType declares the content type of written content.
func WithMimeType(mimeType string) Option {
	return func(o *Options) {
		o.MimeType = mimeType
	}
}

// WithSize declares the byte length of written content.
func WithSize(size int64) Option {
	return func(o *Options) {
		o.Size = size
	}
}

// WithCacheControl sets the Cache-Control header.
func WithCacheControl(cacheControl string) Option {
	return func(o *Options) {
		o.CacheControl = cacheControl
	}
}

// WithRetainVisibility asks copy and move to preserve source visibility.
func WithRetainVisibility(retain bool) Option {
	return func(o *Options) {
		o.RetainVisibility = retain
	}
}

// WithExpiresAt bounds the validity of a temporary URL or prepared upload.
func WithExpiresAt(expiresAt time.Time) Option {
	return func(o *Options) {
		o.ExpiresAt = expiresAt
	}
}

// WithExpiresIn is shorthand for WithExpiresAt(time.Now().Add(d)).
func WithExpiresIn(d time.Duration) Option {
	return func(o *Options) {
		o.ExpiresAt = time.Now().Add(d)
	}
}

// WithChecksumAlgorithm selects the checksum algorithm.
func WithChecksumAlgorithm(algo ChecksumAlgorithm) Option {
	return func(o *Options) {
		o.Algo = algo
	}
}

// WithDeep selects recursive directory listing.
func WithDeep(deep bool) Option {
	return func(o *Options) {
		o.Deep = deep
	}
}

// WithTimeout bounds the whole operation with a deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithExtra forwards an unrecognized option to the backend verbatim.
func WithExtra(key string, value any) Option {
	return func(o *Options) {
		if o.Extra == nil {
			o.Extra = make(map[string]any)
		}
		o.Extra[key] = value
	}
}

package flystorage

import (
	"context"
	"io"
	"iter"
	"sync"
	"time"
)

// Cache is the backend-agnostic interface the stat-caching decorator stores
// metadata in. Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. Returns the value and true if found.
	Get(key string) (any, bool)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a value.
	Delete(key string)

	// Clear removes all values.
	Clear()
}

type cacheEntry struct {
	value      any
	expiration time.Time
	hasExpiry  bool
}

// MemoryCache is a simple in-memory Cache with TTL-based expiration.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*cacheEntry)}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if entry.hasExpiry && time.Now().After(entry.expiration) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(key string, value any, ttl time.Duration) {
	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiration = time.Now().Add(ttl)
		entry.hasExpiry = true
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// StatCachingAdapter caches stat, existence and visibility answers in front
// of a slower backend. Write-family operations passing through the
// decorator invalidate the affected paths; writes bypassing it will serve
// stale metadata until the TTL expires, so keep the TTL short on shared
// backends.
type StatCachingAdapter struct {
	inner StorageAdapter
	cache Cache
	ttl   time.Duration
}

// CachingOption configures a StatCachingAdapter.
type CachingOption func(*StatCachingAdapter)

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) CachingOption {
	return func(a *StatCachingAdapter) { a.cache = cache }
}

// WithCacheTTL sets the entry lifetime. Default is one minute.
func WithCacheTTL(ttl time.Duration) CachingOption {
	return func(a *StatCachingAdapter) { a.ttl = ttl }
}

// NewStatCachingAdapter creates a metadata caching wrapper around an adapter.
func NewStatCachingAdapter(inner StorageAdapter, opts ...CachingOption) *StatCachingAdapter {
	a := &StatCachingAdapter{
		inner: inner,
		cache: NewMemoryCache(),
		ttl:   time.Minute,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Unwrap returns the wrapped adapter.
func (a *StatCachingAdapter) Unwrap() StorageAdapter {
	return a.inner
}

func (a *StatCachingAdapter) invalidate(paths ...string) {
	for _, path := range paths {
		a.cache.Delete("stat:" + path)
		a.cache.Delete("file_exists:" + path)
		a.cache.Delete("dir_exists:" + path)
		a.cache.Delete("visibility:" + path)
	}
}

func (a *StatCachingAdapter) Write(ctx context.Context, path string, contents io.Reader, opts Options) error {
	err := a.inner.Write(ctx, path, contents, opts)
	a.invalidate(path)
	return err
}

func (a *StatCachingAdapter) Read(ctx context.Context, path string, opts Options) (io.ReadCloser, error) {
	return a.inner.Read(ctx, path, opts)
}

func (a *StatCachingAdapter) DeleteFile(ctx context.Context, path string, opts Options) error {
	err := a.inner.DeleteFile(ctx, path, opts)
	a.invalidate(path)
	return err
}

func (a *StatCachingAdapter) CreateDirectory(ctx context.Context, path string, opts Options) error {
	err := a.inner.CreateDirectory(ctx, path, opts)
	a.invalidate(path)
	return err
}

func (a *StatCachingAdapter) DeleteDirectory(ctx context.Context, path string, opts Options) error {
	err := a.inner.DeleteDirectory(ctx, path, opts)
	// Descendants are unknown here; drop everything.
	a.cache.Clear()
	return err
}

func (a *StatCachingAdapter) CopyFile(ctx context.Context, from, to string, opts Options) error {
	err := a.inner.CopyFile(ctx, from, to, opts)
	a.invalidate(to)
	return err
}

func (a *StatCachingAdapter) MoveFile(ctx context.Context, from, to string, opts Options) error {
	err := a.inner.MoveFile(ctx, from, to, opts)
	a.invalidate(from, to)
	return err
}

func (a *StatCachingAdapter) Stat(ctx context.Context, path string, opts Options) (StatEntry, error) {
	key := "stat:" + path
	if cached, ok := a.cache.Get(key); ok {
		return cached.(StatEntry), nil
	}
	entry, err := a.inner.Stat(ctx, path, opts)
	if err != nil {
		return StatEntry{}, err
	}
	a.cache.Set(key, entry, a.ttl)
	return entry, nil
}

func (a *StatCachingAdapter) List(ctx context.Context, path string, opts Options) iter.Seq2[StatEntry, error] {
	return a.inner.List(ctx, path, opts)
}

func (a *StatCachingAdapter) ChangeVisibility(ctx context.Context, path string, visibility Visibility) error {
	err := a.inner.ChangeVisibility(ctx, path, visibility)
	a.invalidate(path)
	return err
}

func (a *StatCachingAdapter) Visibility(ctx context.Context, path string) (Visibility, error) {
	key := "visibility:" + path
	if cached, ok := a.cache.Get(key); ok {
		return cached.(Visibility), nil
	}
	visibility, err := a.inner.Visibility(ctx, path)
	if err != nil {
		return "", err
	}
	a.cache.Set(key, visibility, a.ttl)
	return visibility, nil
}

func (a *StatCachingAdapter) FileExists(ctx context.Context, path string) (bool, error) {
	key := "file_exists:" + path
	if cached, ok := a.cache.Get(key); ok {
		return cached.(bool), nil
	}
	exists, err := a.inner.FileExists(ctx, path)
	if err != nil {
		return false, err
	}
	a.cache.Set(key, exists, a.ttl)
	return exists, nil
}

func (a *StatCachingAdapter) DirectoryExists(ctx context.Context, path string) (bool, error) {
	key := "dir_exists:" + path
	if cached, ok := a.cache.Get(key); ok {
		return cached.(bool), nil
	}
	exists, err := a.inner.DirectoryExists(ctx, path)
	if err != nil {
		return false, err
	}
	a.cache.Set(key, exists, a.ttl)
	return exists, nil
}

func (a *StatCachingAdapter) PublicURL(ctx context.Context, path string, opts Options) (string, error) {
	return a.inner.PublicURL(ctx, path, opts)
}

func (a *StatCachingAdapter) TemporaryURL(ctx context.Context, path string, opts Options) (string, error) {
	return a.inner.TemporaryURL(ctx, path, opts)
}

func (a *StatCachingAdapter) Checksum(ctx context.Context, path string, opts Options) (string, error) {
	return a.inner.Checksum(ctx, path, opts)
}

var (
	_ StorageAdapter = (*StatCachingAdapter)(nil)
	_ AdapterWrapper = (*StatCachingAdapter)(nil)
)

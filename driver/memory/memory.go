// Package memory provides an in-memory implementation of the
// flystorage.StorageAdapter contract. It is the reference backend for
// tests and caching scenarios: a flat key namespace with directory entries
// synthesized from key prefixes, native visibility tracking, staged public
// and temporary URLs, and a configurable native-checksum capability for
// exercising the façade's streaming fallback.
package memory

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"mime"
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/duna-oss/flystorage"
)

type memoryFile struct {
	content    []byte
	mimeType   string
	modTime    time.Time
	visibility flystorage.Visibility
	extra      map[string]string
}

type memoryDir struct {
	modTime    time.Time
	visibility flystorage.Visibility
}

// Config holds configuration for the memory adapter.
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited).
	MaxSize int64

	// Prefix roots every key inside the flat namespace.
	Prefix string

	// PublicURLBase is the base URL public URLs are joined onto. Without it
	// PublicURL fails with a not-supported cause.
	PublicURLBase string

	// TemporaryURLSecret signs temporary URLs. Without it temporary URLs
	// carry only the expiry.
	TemporaryURLSecret string

	// NativeChecksums makes the adapter answer checksum requests itself.
	// When false it reports the algorithm as unavailable, which routes the
	// storage layer into its streaming fallback.
	NativeChecksums bool

	// DefaultVisibility applies to writes without an explicit visibility.
	DefaultVisibility flystorage.Visibility
}

// Adapter is an in-memory flystorage.StorageAdapter.
type Adapter struct {
	mu     sync.RWMutex
	files  map[string]*memoryFile
	dirs   map[string]*memoryDir
	size   int64
	cfg    Config
	prefix *flystorage.PathPrefixer
}

// New creates a new in-memory adapter.
func New(cfg ...Config) *Adapter {
	var c Config
	if len(cfg) > 0 {
		c = cfg[0]
	}
	if c.DefaultVisibility == "" {
		c.DefaultVisibility = flystorage.Private
	}

	a := &Adapter{
		files:  make(map[string]*memoryFile),
		dirs:   make(map[string]*memoryDir),
		cfg:    c,
		prefix: flystorage.NewPathPrefixer(c.Prefix),
	}
	a.dirs[a.dirKey("")] = &memoryDir{modTime: time.Now(), visibility: c.DefaultVisibility}
	return a
}

// fileKey maps a canonical path into the adapter's key namespace.
func (a *Adapter) fileKey(p string) string {
	return a.prefix.PrefixFilePath(p)
}

// dirKey maps a canonical directory path into the key namespace. Directory
// keys carry a trailing separator so they never collide with file keys.
func (a *Adapter) dirKey(p string) string {
	return a.prefix.PrefixDirectoryPath(p)
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// Write implements flystorage.StorageAdapter.
func (a *Adapter) Write(ctx context.Context, p string, contents io.Reader, opts flystorage.Options) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	data, err := io.ReadAll(contents)
	if err != nil {
		return &flystorage.PathError{Op: "write", Path: p, Err: err}
	}
	if err := checkContext(ctx); err != nil {
		return err
	}

	visibility := opts.Visibility
	if visibility == "" {
		visibility = a.cfg.DefaultVisibility
	}
	mimeType := opts.MimeType
	if mimeType == "" {
		mimeType = detectMimeType(p, data)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := a.fileKey(p)
	newSize := a.size + int64(len(data))
	if existing, exists := a.files[key]; exists {
		newSize -= int64(len(existing.content))
	}
	if a.cfg.MaxSize > 0 && newSize > a.cfg.MaxSize {
		return &flystorage.PathError{Op: "write", Path: p, Err: flystorage.ErrNoSpace}
	}

	a.ensureParentDirs(p, opts.DirectoryVisibility)
	a.files[key] = &memoryFile{
		content:    data,
		mimeType:   mimeType,
		modTime:    time.Now(),
		visibility: visibility,
		extra:      stringExtras(opts.Extra),
	}
	a.size = newSize

	return nil
}

// Read implements flystorage.StorageAdapter.
func (a *Adapter) Read(ctx context.Context, p string, opts flystorage.Options) (io.ReadCloser, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	file, exists := a.files[a.fileKey(p)]
	if !exists {
		return nil, &flystorage.PathError{Op: "read", Path: p, Err: flystorage.ErrNotExist}
	}
	// Copy-on-read keeps returned streams immune to later writes.
	return io.NopCloser(bytes.NewReader(file.content)), nil
}

// DeleteFile implements flystorage.StorageAdapter. Idempotent.
func (a *Adapter) DeleteFile(ctx context.Context, p string, opts flystorage.Options) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := a.fileKey(p)
	if file, exists := a.files[key]; exists {
		a.size -= int64(len(file.content))
		delete(a.files, key)
	}
	return nil
}

// CreateDirectory implements flystorage.StorageAdapter. Idempotent.
func (a *Adapter) CreateDirectory(ctx context.Context, p string, opts flystorage.Options) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.files[a.fileKey(p)]; exists {
		return &flystorage.PathError{Op: "create_directory", Path: p, Err: flystorage.ErrNotDir}
	}

	visibility := opts.DirectoryVisibility
	if visibility == "" {
		visibility = a.cfg.DefaultVisibility
	}
	a.ensureParentDirs(p, visibility)
	if _, exists := a.dirs[a.dirKey(p)]; !exists {
		a.dirs[a.dirKey(p)] = &memoryDir{modTime: time.Now(), visibility: visibility}
	}
	return nil
}

// DeleteDirectory implements flystorage.StorageAdapter. Removes all
// descendants. Idempotent.
func (a *Adapter) DeleteDirectory(ctx context.Context, p string, opts flystorage.Options) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	prefix := a.dirKey(p)
	for key, file := range a.files {
		if strings.HasPrefix(key, prefix) {
			a.size -= int64(len(file.content))
			delete(a.files, key)
		}
	}
	for key := range a.dirs {
		if key != a.dirKey("") && (key == prefix || strings.HasPrefix(key, prefix)) {
			delete(a.dirs, key)
		}
	}
	return nil
}

// CopyFile implements flystorage.StorageAdapter.
func (a *Adapter) CopyFile(ctx context.Context, from, to string, opts flystorage.Options) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	src, exists := a.files[a.fileKey(from)]
	if !exists {
		return &flystorage.PathError{Op: "copy", Path: from, Err: flystorage.ErrNotExist}
	}

	visibility := opts.Visibility
	if visibility == "" {
		visibility = src.visibility
	}
	a.ensureParentDirs(to, opts.DirectoryVisibility)
	dstKey := a.fileKey(to)
	if existing, exists := a.files[dstKey]; exists {
		a.size -= int64(len(existing.content))
	}
	a.files[dstKey] = &memoryFile{
		content:    append([]byte(nil), src.content...),
		mimeType:   src.mimeType,
		modTime:    time.Now(),
		visibility: visibility,
		extra:      src.extra,
	}
	a.size += int64(len(src.content))
	return nil
}

// MoveFile implements flystorage.StorageAdapter.
func (a *Adapter) MoveFile(ctx context.Context, from, to string, opts flystorage.Options) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	srcKey := a.fileKey(from)
	src, exists := a.files[srcKey]
	if !exists {
		return &flystorage.PathError{Op: "move", Path: from, Err: flystorage.ErrNotExist}
	}

	if opts.Visibility != "" {
		src.visibility = opts.Visibility
	}
	a.ensureParentDirs(to, opts.DirectoryVisibility)
	dstKey := a.fileKey(to)
	if existing, exists := a.files[dstKey]; exists && dstKey != srcKey {
		a.size -= int64(len(existing.content))
	}
	a.files[dstKey] = src
	if dstKey != srcKey {
		delete(a.files, srcKey)
	}
	return nil
}

// Stat implements flystorage.StorageAdapter.
func (a *Adapter) Stat(ctx context.Context, p string, opts flystorage.Options) (flystorage.StatEntry, error) {
	if err := checkContext(ctx); err != nil {
		return flystorage.StatEntry{}, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if file, exists := a.files[a.fileKey(p)]; exists {
		return a.fileEntry(a.fileKey(p), file), nil
	}
	if dir, exists := a.dirs[a.dirKey(p)]; exists {
		return a.dirEntry(a.dirKey(p), dir), nil
	}
	return flystorage.StatEntry{}, &flystorage.PathError{Op: "stat", Path: p, Err: flystorage.ErrNotExist}
}

// List implements flystorage.StorageAdapter. The sequence is computed from
// a snapshot taken at first pull; directory entries are materialized from
// key prefixes, so deep and shallow listings of the same tree stay
// column-consistent.
func (a *Adapter) List(ctx context.Context, p string, opts flystorage.Options) iter.Seq2[flystorage.StatEntry, error] {
	return func(yield func(flystorage.StatEntry, error) bool) {
		if err := checkContext(ctx); err != nil {
			yield(flystorage.StatEntry{}, err)
			return
		}

		entries, err := a.snapshot(p, opts.Deep)
		if err != nil {
			yield(flystorage.StatEntry{}, err)
			return
		}
		for _, entry := range entries {
			if err := checkContext(ctx); err != nil {
				yield(flystorage.StatEntry{}, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

func (a *Adapter) snapshot(p string, deep bool) ([]flystorage.StatEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, isFile := a.files[a.fileKey(p)]; isFile {
		return nil, &flystorage.PathError{Op: "list", Path: p, Err: flystorage.ErrNotDir}
	}

	prefix := a.dirKey(p)

	// Materialize the directory set from registered directories plus every
	// intermediate level implied by file keys.
	dirSet := make(map[string]*memoryDir)
	for key, dir := range a.dirs {
		dirSet[key] = dir
	}
	for key := range a.files {
		for parent := parentKey(key); parent != ""; parent = parentKey(strings.TrimSuffix(parent, "/")) {
			if _, ok := dirSet[parent]; !ok {
				dirSet[parent] = &memoryDir{visibility: a.cfg.DefaultVisibility}
			}
		}
	}

	var entries []flystorage.StatEntry

	for key, file := range a.files {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rel := strings.TrimPrefix(key, prefix)
		if rel == "" || (!deep && strings.Contains(rel, "/")) {
			continue
		}
		entries = append(entries, a.fileEntry(key, file))
	}

	for key, dir := range dirSet {
		if key == a.dirKey("") || key == prefix || !strings.HasPrefix(key, prefix) {
			continue
		}
		rel := strings.TrimSuffix(strings.TrimPrefix(key, prefix), "/")
		if !deep && strings.Contains(rel, "/") {
			continue
		}
		entries = append(entries, a.dirEntry(key, dir))
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// parentKey returns the directory key containing the given key, or "" at
// the root.
func parentKey(key string) string {
	idx := strings.LastIndex(key, "/")
	if idx < 0 {
		return ""
	}
	return key[:idx+1]
}

func (a *Adapter) fileEntry(key string, file *memoryFile) flystorage.StatEntry {
	return flystorage.StatEntry{
		Path:         a.prefix.StripFilePath(key),
		Type:         flystorage.EntryTypeFile,
		Size:         int64(len(file.content)),
		LastModified: file.modTime,
		MimeType:     file.mimeType,
		Visibility:   file.visibility,
		Extra:        file.extra,
	}
}

func (a *Adapter) dirEntry(key string, dir *memoryDir) flystorage.StatEntry {
	return flystorage.StatEntry{
		Path:         a.prefix.StripDirectoryPath(key),
		Type:         flystorage.EntryTypeDirectory,
		LastModified: dir.modTime,
		Visibility:   dir.visibility,
	}
}

// ChangeVisibility implements flystorage.StorageAdapter.
func (a *Adapter) ChangeVisibility(ctx context.Context, p string, visibility flystorage.Visibility) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if file, exists := a.files[a.fileKey(p)]; exists {
		file.visibility = visibility
		return nil
	}
	if dir, exists := a.dirs[a.dirKey(p)]; exists {
		dir.visibility = visibility
		return nil
	}
	return &flystorage.PathError{Op: "change_visibility", Path: p, Err: flystorage.ErrNotExist}
}

// Visibility implements flystorage.StorageAdapter.
func (a *Adapter) Visibility(ctx context.Context, p string) (flystorage.Visibility, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	if file, exists := a.files[a.fileKey(p)]; exists {
		return file.visibility, nil
	}
	if dir, exists := a.dirs[a.dirKey(p)]; exists {
		return dir.visibility, nil
	}
	return "", &flystorage.PathError{Op: "visibility", Path: p, Err: flystorage.ErrNotExist}
}

// FileExists implements flystorage.StorageAdapter.
func (a *Adapter) FileExists(ctx context.Context, p string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	_, exists := a.files[a.fileKey(p)]
	return exists, nil
}

// DirectoryExists implements flystorage.StorageAdapter.
func (a *Adapter) DirectoryExists(ctx context.Context, p string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, exists := a.dirs[a.dirKey(p)]; exists {
		return true, nil
	}
	// Flat namespace: a directory also exists when any file key sits below it.
	prefix := a.dirKey(p)
	for key := range a.files {
		if strings.HasPrefix(key, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// PublicURL implements flystorage.StorageAdapter.
func (a *Adapter) PublicURL(ctx context.Context, p string, opts flystorage.Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}
	if a.cfg.PublicURLBase == "" {
		return "", &flystorage.PathError{Op: "public_url", Path: p, Err: flystorage.ErrNotSupported}
	}
	return strings.TrimSuffix(a.cfg.PublicURLBase, "/") + "/" + path.Join(strings.Trim(a.cfg.Prefix, "/"), p), nil
}

// TemporaryURL implements flystorage.StorageAdapter. The URL carries the
// expiry, and an HMAC-SHA256 signature when a secret is configured.
func (a *Adapter) TemporaryURL(ctx context.Context, p string, opts flystorage.Options) (string, error) {
	base, err := a.PublicURL(ctx, p, opts)
	if err != nil {
		return "", &flystorage.PathError{Op: "temporary_url", Path: p, Err: flystorage.ErrNotSupported}
	}

	expires := strconv.FormatInt(opts.ExpiresAt.Unix(), 10)
	url := base + "?expires=" + expires
	if a.cfg.TemporaryURLSecret != "" {
		mac := hmac.New(sha256.New, []byte(a.cfg.TemporaryURLSecret))
		fmt.Fprintf(mac, "%s:%s", p, expires)
		url += "&signature=" + hex.EncodeToString(mac.Sum(nil))
	}
	return url, nil
}

// Checksum implements flystorage.StorageAdapter. Without NativeChecksums
// it reports the algorithm as unavailable so the storage layer computes the
// digest itself by streaming.
func (a *Adapter) Checksum(ctx context.Context, p string, opts flystorage.Options) (string, error) {
	if err := checkContext(ctx); err != nil {
		return "", err
	}
	if !a.cfg.NativeChecksums {
		return "", &flystorage.PathError{Op: "checksum", Path: p, Err: flystorage.ErrChecksumUnavailable}
	}

	a.mu.RLock()
	file, exists := a.files[a.fileKey(p)]
	a.mu.RUnlock()
	if !exists {
		return "", &flystorage.PathError{Op: "checksum", Path: p, Err: flystorage.ErrNotExist}
	}
	return flystorage.CalculateChecksum(bytes.NewReader(file.content), opts.Algo)
}

// ensureParentDirs registers every directory level implied by p. Caller
// holds the write lock.
func (a *Adapter) ensureParentDirs(p string, visibility flystorage.Visibility) {
	if visibility == "" {
		visibility = a.cfg.DefaultVisibility
	}
	segments := strings.Split(p, "/")
	for i := 1; i < len(segments); i++ {
		dir := strings.Join(segments[:i], "/")
		key := a.dirKey(dir)
		if _, exists := a.dirs[key]; !exists {
			a.dirs[key] = &memoryDir{modTime: time.Now(), visibility: visibility}
		}
	}
}

func detectMimeType(p string, data []byte) string {
	if byExt := mime.TypeByExtension(path.Ext(p)); byExt != "" {
		return byExt
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return ""
}

func stringExtras(extra map[string]any) map[string]string {
	if len(extra) == 0 {
		return nil
	}
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		out[k] = fmt.Sprint(v)
	}
	return out
}

var _ flystorage.StorageAdapter = (*Adapter)(nil)

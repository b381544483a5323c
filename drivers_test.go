package flystorage_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/duna-oss/flystorage"
	"github.com/duna-oss/flystorage/driver/memory"
)

func newStorage(t *testing.T, opts ...flystorage.StorageOption) *flystorage.FileStorage {
	t.Helper()
	return flystorage.NewFileStorage(memory.New(), opts...)
}

func TestStorageWriteReadRoundTrip(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	if err := storage.WriteString(ctx, "greeting.txt", "Hello, World!"); err != nil {
		t.Fatalf("Write error = %v", err)
	}

	got, err := storage.ReadAll(ctx, "greeting.txt")
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	if string(got) != "Hello, World!" {
		t.Errorf("contents = %q, want %q", got, "Hello, World!")
	}

	exists, err := storage.FileExists(ctx, "greeting.txt")
	if err != nil {
		t.Fatalf("FileExists error = %v", err)
	}
	if !exists {
		t.Error("file reported missing after write")
	}
}

func TestStorageReadMissingFile(t *testing.T) {
	storage := newStorage(t)

	_, err := storage.ReadAll(context.Background(), "nope.txt")
	if !flystorage.HasCode(err, flystorage.CodeUnableToReadFile) {
		t.Fatalf("error = %v, want a typed read error", err)
	}
	if !flystorage.IsNotExist(err) {
		t.Errorf("error = %v, want a not-found cause", err)
	}
}

func TestStorageListShallowAndDeep(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	for _, path := range []string{"dir/a.txt", "dir/b.txt", "dir/c/a.txt"} {
		if err := storage.WriteString(ctx, path, "x"); err != nil {
			t.Fatalf("Write(%q) error = %v", path, err)
		}
	}

	shallow, err := storage.List(ctx, "dir")
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	entries, err := shallow.ToSlice()
	if err != nil {
		t.Fatalf("ToSlice error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("shallow listing has %d entries, want 3: %+v", len(entries), entries)
	}
	var paths []string
	for _, entry := range entries {
		paths = append(paths, entry.Path)
	}
	sort.Strings(paths)
	want := []string{"dir/a.txt", "dir/b.txt", "dir/c"}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("shallow paths = %v, want %v", paths, want)
			break
		}
	}
	for _, entry := range entries {
		if entry.Path == "dir/c" && !entry.IsDir() {
			t.Error("dir/c listed as a file, want a directory entry")
		}
	}

	deep, err := storage.List(ctx, "dir", flystorage.WithDeep(true))
	if err != nil {
		t.Fatalf("List deep error = %v", err)
	}
	deepEntries, err := deep.ToSlice()
	if err != nil {
		t.Fatalf("deep ToSlice error = %v", err)
	}
	if len(deepEntries) != 4 {
		t.Errorf("deep listing has %d entries, want 4: %+v", len(deepEntries), deepEntries)
	}
}

func TestStorageDeleteFileIsIdempotent(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	if err := storage.WriteString(ctx, "tmp.txt", "x"); err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if err := storage.DeleteFile(ctx, "tmp.txt"); err != nil {
		t.Fatalf("first delete error = %v", err)
	}
	if err := storage.DeleteFile(ctx, "tmp.txt"); err != nil {
		t.Fatalf("second delete error = %v, want success", err)
	}
}

func TestStorageDeleteDirectoryRemovesContents(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	if err := storage.WriteString(ctx, "dir/sub/file.txt", "x"); err != nil {
		t.Fatalf("Write error = %v", err)
	}
	if err := storage.DeleteDirectory(ctx, "dir"); err != nil {
		t.Fatalf("DeleteDirectory error = %v", err)
	}

	exists, err := storage.FileExists(ctx, "dir/sub/file.txt")
	if err != nil {
		t.Fatalf("FileExists error = %v", err)
	}
	if exists {
		t.Error("file survived the deletion of its directory")
	}
	if err := storage.DeleteDirectory(ctx, "dir"); err != nil {
		t.Errorf("repeated DeleteDirectory error = %v, want success", err)
	}
}

func TestStorageCopyAndMove(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	if err := storage.WriteString(ctx, "src.txt", "payload",
		flystorage.WithVisibility(flystorage.Public)); err != nil {
		t.Fatalf("Write error = %v", err)
	}

	if err := storage.CopyFile(ctx, "src.txt", "copy.txt",
		flystorage.WithRetainVisibility(true)); err != nil {
		t.Fatalf("CopyFile error = %v", err)
	}
	visibility, err := storage.Visibility(ctx, "copy.txt")
	if err != nil {
		t.Fatalf("Visibility error = %v", err)
	}
	if visibility != flystorage.Public {
		t.Errorf("copy visibility = %q, want the retained source value", visibility)
	}

	if err := storage.MoveFile(ctx, "copy.txt", "moved.txt"); err != nil {
		t.Fatalf("MoveFile error = %v", err)
	}
	if exists, _ := storage.FileExists(ctx, "copy.txt"); exists {
		t.Error("source still present after move")
	}
	got, err := storage.ReadAll(ctx, "moved.txt")
	if err != nil {
		t.Fatalf("ReadAll error = %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("moved contents = %q, want %q", got, "payload")
	}
}

func TestStorageCopyMissingSource(t *testing.T) {
	storage := newStorage(t)

	err := storage.CopyFile(context.Background(), "ghost.txt", "dst.txt")
	if !flystorage.HasCode(err, flystorage.CodeUnableToCopyFile) {
		t.Fatalf("error = %v, want a typed copy error", err)
	}
	if !flystorage.IsNotExist(err) {
		t.Errorf("error = %v, want a not-found cause", err)
	}
}

func TestStorageStatAndDerivations(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	if err := storage.WriteString(ctx, "report.pdf", "contents"); err != nil {
		t.Fatalf("Write error = %v", err)
	}

	entry, err := storage.Stat(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("Stat error = %v", err)
	}
	if !entry.IsFile() {
		t.Error("stat reported a non-file for a written file")
	}
	if entry.Size != int64(len("contents")) {
		t.Errorf("Size = %d, want %d", entry.Size, len("contents"))
	}

	size, err := storage.FileSize(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("FileSize error = %v", err)
	}
	if size != int64(len("contents")) {
		t.Errorf("FileSize = %d, want %d", size, len("contents"))
	}

	modified, err := storage.LastModified(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("LastModified error = %v", err)
	}
	if modified.Before(before) {
		t.Errorf("LastModified = %v, want a recent timestamp", modified)
	}

	mimeType, err := storage.MimeType(ctx, "report.pdf")
	if err != nil {
		t.Fatalf("MimeType error = %v", err)
	}
	if !strings.HasPrefix(mimeType, "application/pdf") {
		t.Errorf("MimeType = %q, want application/pdf", mimeType)
	}
}

func TestStorageChecksumFallback(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	if err := storage.WriteString(ctx, "path.txt", "contents"); err != nil {
		t.Fatalf("Write error = %v", err)
	}

	sum, err := storage.Checksum(ctx, "path.txt")
	if err != nil {
		t.Fatalf("Checksum error = %v", err)
	}
	if sum != "98bf7d8c15784f0a3d63204441e1e2aa" {
		t.Errorf("md5 = %q, want 98bf7d8c15784f0a3d63204441e1e2aa", sum)
	}

	sha, err := storage.Checksum(ctx, "path.txt",
		flystorage.WithChecksumAlgorithm(flystorage.ChecksumSHA1))
	if err != nil {
		t.Fatalf("Checksum sha1 error = %v", err)
	}
	if sha != "4a756ca07e9487f482465a99e8286abc86ba4dc7" {
		t.Errorf("sha1 = %q, want 4a756ca07e9487f482465a99e8286abc86ba4dc7", sha)
	}
}

func TestStorageCancelledWriteLeavesNoFile(t *testing.T) {
	storage := newStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := storage.WriteString(ctx, "never.txt", "data")
	if err == nil {
		t.Fatal("expected the cancelled write to fail")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	exists, err := storage.FileExists(context.Background(), "never.txt")
	if err != nil {
		t.Fatalf("FileExists error = %v", err)
	}
	if exists {
		t.Error("cancelled write left a file behind")
	}
}

func TestStorageCancelledMidStreamWrite(t *testing.T) {
	storage := newStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	reader := io.MultiReader(
		strings.NewReader("head"),
		cancelOnRead{cancel: cancel},
		strings.NewReader("tail"),
	)

	err := storage.Write(ctx, "partial.txt", reader)
	if err == nil {
		t.Fatal("expected the mid-stream cancellation to fail the write")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}

	exists, statErr := storage.FileExists(context.Background(), "partial.txt")
	if statErr != nil {
		t.Fatalf("FileExists error = %v", statErr)
	}
	if exists {
		t.Error("aborted write left a partial file behind")
	}
}

// cancelOnRead cancels its context the first time it is read from.
type cancelOnRead struct {
	cancel context.CancelFunc
}

func (c cancelOnRead) Read([]byte) (int, error) {
	c.cancel()
	return 0, nil
}

func TestStorageDirectoryLifecycle(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	if err := storage.CreateDirectory(ctx, "uploads"); err != nil {
		t.Fatalf("CreateDirectory error = %v", err)
	}
	exists, err := storage.DirectoryExists(ctx, "uploads")
	if err != nil {
		t.Fatalf("DirectoryExists error = %v", err)
	}
	if !exists {
		t.Error("directory missing after create")
	}
	if err := storage.CreateDirectory(ctx, "uploads"); err != nil {
		t.Errorf("repeated CreateDirectory error = %v, want success", err)
	}
}

func TestStorageVisibilityRoundTrip(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	if err := storage.WriteString(ctx, "file.txt", "x"); err != nil {
		t.Fatalf("Write error = %v", err)
	}

	visibility, err := storage.Visibility(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Visibility error = %v", err)
	}
	if visibility != flystorage.Private {
		t.Errorf("default visibility = %q, want private", visibility)
	}

	if err := storage.ChangeVisibility(ctx, "file.txt", flystorage.Public); err != nil {
		t.Fatalf("ChangeVisibility error = %v", err)
	}
	visibility, err = storage.Visibility(ctx, "file.txt")
	if err != nil {
		t.Fatalf("Visibility error = %v", err)
	}
	if visibility != flystorage.Public {
		t.Errorf("visibility = %q after change, want public", visibility)
	}
}

func TestStorageListFilterByGlob(t *testing.T) {
	storage := newStorage(t)
	ctx := context.Background()

	for _, path := range []string{"logs/app.log", "logs/app.txt", "logs/db.log"} {
		if err := storage.WriteString(ctx, path, "x"); err != nil {
			t.Fatalf("Write(%q) error = %v", path, err)
		}
	}

	listing, err := storage.List(ctx, "logs")
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	entries, err := listing.Filter(flystorage.MatchGlob("logs/*.log")).ToSlice()
	if err != nil {
		t.Fatalf("ToSlice error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("filtered listing has %d entries, want 2", len(entries))
	}
	if entries[0].Path != "logs/app.log" || entries[1].Path != "logs/db.log" {
		t.Errorf("filtered paths = %q, %q", entries[0].Path, entries[1].Path)
	}
}

// Package flystorage provides a storage abstraction layer that lets
// application code perform file operations against a swappable backing
// store without depending on backend specific APIs or error types.
//
// The [FileStorage] façade is the public entry point. It validates and
// normalizes every path, merges call-site options over configured defaults,
// runs each call under an optional deadline envelope, and translates every
// backend failure into exactly one [StorageError] per operation family.
// Backends implement the [StorageAdapter] contract; the façade never leaks
// their raw error shapes.
//
// # Basic Usage
//
//	import "github.com/duna-oss/flystorage/driver/memory"
//
//	storage := flystorage.NewFileStorage(memory.New())
//
//	ctx := context.Background()
//
//	// Write a file
//	err := storage.WriteString(ctx, "hello.txt", "Hello, World!")
//
//	// Read a file
//	data, err := storage.ReadAll(ctx, "hello.txt")
//
//	// Check existence
//	exists, err := storage.FileExists(ctx, "hello.txt")
//
//	// List directory contents lazily
//	listing, err := storage.List(ctx, "", flystorage.WithDeep(true))
//	entries, err := listing.ToSlice()
//
// # Path Safety
//
// Every path is normalized before it reaches a backend: traversal that
// would escape the root fails with [ErrPathTraversal], control characters
// fail with [ErrCorruptedPath], and the canonical form carries no leading
// or trailing separator.
//
// # Error Handling
//
// The façade wraps adapter failures in a [StorageError] keyed by operation
// family; root causes remain reachable through errors.Is:
//
//	_, err := storage.ReadAll(ctx, "nope.txt")
//	if flystorage.HasCode(err, flystorage.CodeUnableToReadFile) {
//	    // operation family
//	}
//	if flystorage.IsNotExist(err) {
//	    // root cause
//	}
//
// # Decorators
//
// Adapter-shaped components wrap other adapter-shaped components, forming
// transparent chains:
//
//	adapter = flystorage.NewStatCachingAdapter(adapter)
//	adapter = flystorage.NewLoggingAdapter(adapter, logger)
//	adapter = flystorage.NewReadOnlyAdapter(adapter)
//
// # Configuration
//
// Instances can be built from environment variables with the FLYSTORAGE_
// prefix through the driver registry:
//
//	import _ "github.com/duna-oss/flystorage/driver/memory"
//
//	storage, err := flystorage.NewFromEnv()
package flystorage

package flystorage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel root causes. Adapters should wrap these so callers can use
// errors.Is to discriminate failure causes across heterogeneous backends.
var (
	ErrNotExist     = errors.New("file does not exist")
	ErrExist        = errors.New("file already exists")
	ErrPermission   = errors.New("permission denied")
	ErrNotDir       = errors.New("not a directory")
	ErrIsDir        = errors.New("is a directory")
	ErrNotSupported = errors.New("operation not supported")
	ErrInvalidSize  = errors.New("invalid file size")
	ErrNoSpace      = errors.New("no space left on device")

	// ErrCorruptedPath is returned by NormalizePath when the input contains
	// control characters or other illegal whitespace.
	ErrCorruptedPath = errors.New("corrupted path detected")

	// ErrPathTraversal is returned by NormalizePath when resolving the input
	// would escape the root.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrChecksumUnavailable signals that a backend cannot produce a native
	// checksum for the requested algorithm. It is a recoverable condition:
	// the storage layer falls back to streaming the file through a local
	// hash and callers never observe it.
	ErrChecksumUnavailable = errors.New("checksum algorithm unavailable")

	// ErrListingConsumed is returned when a single-pass DirectoryListing is
	// iterated a second time.
	ErrListingConsumed = errors.New("directory listing already consumed")
)

// ErrorCode identifies the operation family a StorageError belongs to.
// There is exactly one code per public operation; callers that need to tell
// "not found" from "permission denied" inspect the wrapped cause instead.
type ErrorCode string

const (
	CodeUnableToWriteFile            ErrorCode = "unable_to_write_file"
	CodeUnableToReadFile             ErrorCode = "unable_to_read_file"
	CodeUnableToDeleteFile           ErrorCode = "unable_to_delete_file"
	CodeUnableToCreateDirectory      ErrorCode = "unable_to_create_directory"
	CodeUnableToDeleteDirectory      ErrorCode = "unable_to_delete_directory"
	CodeUnableToCopyFile             ErrorCode = "unable_to_copy_file"
	CodeUnableToMoveFile             ErrorCode = "unable_to_move_file"
	CodeUnableToGetStat              ErrorCode = "unable_to_get_stat"
	CodeUnableToCheckFileExistence   ErrorCode = "unable_to_check_file_existence"
	CodeUnableToCheckDirExistence    ErrorCode = "unable_to_check_directory_existence"
	CodeUnableToListDirectory        ErrorCode = "unable_to_list_directory"
	CodeUnableToSetVisibility        ErrorCode = "unable_to_set_visibility"
	CodeUnableToGetVisibility        ErrorCode = "unable_to_get_visibility"
	CodeUnableToGetPublicURL         ErrorCode = "unable_to_get_public_url"
	CodeUnableToGetTemporaryURL      ErrorCode = "unable_to_get_temporary_url"
	CodeUnableToGetChecksum          ErrorCode = "unable_to_get_checksum"
	CodeUnableToGetMimeType          ErrorCode = "unable_to_get_mime_type"
	CodeUnableToGetLastModified      ErrorCode = "unable_to_get_last_modified"
	CodeUnableToGetFileSize          ErrorCode = "unable_to_get_file_size"
	CodeUnableToPrepareUploadRequest ErrorCode = "unable_to_prepare_upload_request"
)

// StorageError is the single error shape returned by the FileStorage façade.
// It carries the operation family code, the canonical path the operation
// targeted, structured context (the call arguments), and the underlying
// cause from the adapter.
type StorageError struct {
	Code    ErrorCode
	Path    string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is (or wraps) a StorageError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == code
}

// PathError records an error and the operation and file path that caused it.
// Adapters use it to wrap backend failures with operation context; the
// normalizer uses it for corrupted-path and path-traversal failures.
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotExist reports whether an error indicates that a file or directory
// does not exist.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsNotSupported reports whether an error indicates that the backend does
// not support the attempted operation.
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}

// IsPermission reports whether an error indicates that permission is denied.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

package flystorage

import (
	"errors"
	"fmt"
	"testing"
)

func TestStorageErrorMessage(t *testing.T) {
	err := &StorageError{
		Code: CodeUnableToReadFile,
		Path: "dir/file.txt",
		Err:  ErrNotExist,
	}
	want := "unable_to_read_file dir/file.txt: file does not exist"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStorageErrorUnwrapChain(t *testing.T) {
	cause := &PathError{Op: "read", Path: "file.txt", Err: ErrNotExist}
	err := fmt.Errorf("request failed: %w", &StorageError{
		Code: CodeUnableToReadFile,
		Path: "file.txt",
		Err:  cause,
	})

	if !HasCode(err, CodeUnableToReadFile) {
		t.Error("HasCode did not find the code through the wrap chain")
	}
	if HasCode(err, CodeUnableToWriteFile) {
		t.Error("HasCode matched the wrong code")
	}
	if !IsNotExist(err) {
		t.Error("IsNotExist did not reach the sentinel cause")
	}

	var pe *PathError
	if !errors.As(err, &pe) || pe.Op != "read" {
		t.Errorf("PathError not reachable, got %v", pe)
	}
}

func TestSentinelPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"not exist direct", ErrNotExist, IsNotExist, true},
		{"not exist wrapped", &PathError{Op: "stat", Path: "x", Err: ErrNotExist}, IsNotExist, true},
		{"not supported", &PathError{Op: "public_url", Path: "x", Err: ErrNotSupported}, IsNotSupported, true},
		{"permission", fmt.Errorf("backend: %w", ErrPermission), IsPermission, true},
		{"mismatch", ErrNotExist, IsPermission, false},
		{"nil", nil, IsNotExist, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasCodeOnForeignError(t *testing.T) {
	if HasCode(errors.New("plain"), CodeUnableToReadFile) {
		t.Error("HasCode matched a non-storage error")
	}
	if HasCode(nil, CodeUnableToReadFile) {
		t.Error("HasCode matched nil")
	}
}

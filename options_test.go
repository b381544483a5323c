package flystorage

import (
	"testing"
	"time"
)

func TestResolveOptionsLastWins(t *testing.T) {
	o := ResolveOptions(
		WithVisibility(Private),
		WithMimeType("text/plain"),
		WithVisibility(Public),
	)
	if o.Visibility != Public {
		t.Errorf("Visibility = %q, want the later option", o.Visibility)
	}
	if o.MimeType != "text/plain" {
		t.Errorf("MimeType = %q, untouched options must survive", o.MimeType)
	}
}

func TestResolveOptionsZeroValue(t *testing.T) {
	o := ResolveOptions()
	if o.Visibility != "" || o.Deep || o.Timeout != 0 {
		t.Errorf("zero options = %+v, want all unset", o)
	}
}

func TestOptionConstructors(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	o := ResolveOptions(
		WithDirectoryVisibility(Public),
		WithSize(42),
		WithCacheControl("no-store"),
		WithRetainVisibility(true),
		WithExpiresAt(expires),
		WithChecksumAlgorithm(ChecksumSHA256),
		WithDeep(true),
		WithTimeout(time.Second),
		WithExtra("owner", "alice"),
	)

	if o.DirectoryVisibility != Public {
		t.Errorf("DirectoryVisibility = %q", o.DirectoryVisibility)
	}
	if o.Size != 42 {
		t.Errorf("Size = %d", o.Size)
	}
	if o.CacheControl != "no-store" {
		t.Errorf("CacheControl = %q", o.CacheControl)
	}
	if !o.RetainVisibility {
		t.Error("RetainVisibility not set")
	}
	if !o.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v", o.ExpiresAt)
	}
	if o.Algo != ChecksumSHA256 {
		t.Errorf("Algo = %q", o.Algo)
	}
	if !o.Deep {
		t.Error("Deep not set")
	}
	if o.Timeout != time.Second {
		t.Errorf("Timeout = %v", o.Timeout)
	}
	if o.Extra["owner"] != "alice" {
		t.Errorf("Extra = %v", o.Extra)
	}
}

func TestWithExpiresIn(t *testing.T) {
	before := time.Now()
	o := ResolveOptions(WithExpiresIn(time.Hour))
	if o.ExpiresAt.Before(before.Add(59 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want roughly an hour out", o.ExpiresAt)
	}
}

package flystorage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler), &buf
}

func TestLoggingAdapterRecordsSuccess(t *testing.T) {
	logger, buf := newTestLogger()
	adapter := NewLoggingAdapter(&stubAdapter{}, logger)

	err := adapter.Write(context.Background(), "dir/file.txt", strings.NewReader("x"), Options{})
	if err != nil {
		t.Fatalf("Write error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") {
		t.Errorf("log = %q, want a debug record", out)
	}
	if !strings.Contains(out, "op=write") || !strings.Contains(out, "path=dir/file.txt") {
		t.Errorf("log = %q, want op and path attributes", out)
	}
}

func TestLoggingAdapterRecordsFailure(t *testing.T) {
	logger, buf := newTestLogger()
	inner := &stubAdapter{
		readFn: func(context.Context, string, Options) (io.ReadCloser, error) {
			return nil, errors.New("backend offline")
		},
	}
	adapter := NewLoggingAdapter(inner, logger)

	if _, err := adapter.Read(context.Background(), "file.txt", Options{}); err == nil {
		t.Fatal("expected the read to fail")
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("log = %q, want a warn record", out)
	}
	if !strings.Contains(out, "backend offline") {
		t.Errorf("log = %q, want the error attribute", out)
	}
}

func TestLoggingAdapterRecordsListAtExhaustion(t *testing.T) {
	logger, buf := newTestLogger()
	adapter := NewLoggingAdapter(&stubAdapter{}, logger)

	seq := adapter.List(context.Background(), "dir", Options{})
	if buf.Len() != 0 {
		t.Errorf("log written before iteration: %q", buf.String())
	}
	for range seq {
	}
	if !strings.Contains(buf.String(), "op=list") {
		t.Errorf("log = %q, want the list record after exhaustion", buf.String())
	}
}

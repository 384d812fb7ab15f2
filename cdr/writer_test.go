package cdr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendWritesExpectedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cdr.log")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer w.Close()

	if err := w.Append("250010123456789", EventCreate); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	line := strings.TrimSuffix(string(data), "\n")
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		t.Fatalf("expected 3 comma-separated fields, got %d: %q", len(parts), line)
	}
	if parts[1] != "250010123456789" {
		t.Fatalf("unexpected imsi field: %q", parts[1])
	}
	if parts[2] != EventCreate {
		t.Fatalf("unexpected event field: %q", parts[2])
	}
}

func TestAppendIsOrderedUnderConcurrency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cdr.log")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer w.Close()

	const n = 50
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			done <- w.Append("250010123456780", EventDeleted)
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != n {
		t.Fatalf("expected %d lines, got %d", n, len(lines))
	}
}

func TestOpenAppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cdr.log")
	w1, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := w1.Append("250010123456781", EventCreate); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	w2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer w2.Close()
	if err := w2.Append("250010123456781", EventDeleteWithShutdown); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines after reopen, got %d", len(lines))
	}
}

package logs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tidy.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\n")

	result, err := Tail(context.Background(), path, Options{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "three" || result.Lines[1] != "four" {
		t.Fatalf("unexpected lines: %v", result.Lines)
	}
	if result.Offset <= 0 {
		t.Fatalf("offset should point past the read content, got %d", result.Offset)
	}
}

func TestTailResumesFromOffset(t *testing.T) {
	path := writeLog(t, "first\n")

	initial, err := Tail(context.Background(), path, Options{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := file.WriteString("second\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	file.Close()

	next, err := Tail(context.Background(), path, Options{Offset: initial.Offset})
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "second" {
		t.Fatalf("unexpected incremental lines: %v", next.Lines)
	}
}

func TestTailMissingFileIsEmpty(t *testing.T) {
	result, err := Tail(context.Background(), filepath.Join(t.TempDir(), "absent.log"), Options{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTailTruncatedFileRestarts(t *testing.T) {
	path := writeLog(t, "a long first generation line\nanother\n")
	initial, err := Tail(context.Background(), path, Options{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	next, err := Tail(context.Background(), path, Options{Offset: initial.Offset})
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "fresh" {
		t.Fatalf("truncated file should restart from the top: %v", next.Lines)
	}
}

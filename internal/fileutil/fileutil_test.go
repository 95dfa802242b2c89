package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tidy/internal/fileutil"
)

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if fileutil.Exists(src) {
		t.Fatal("source should be gone after move")
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Fatalf("destination content wrong: %q, %v", data, err)
	}
}

func TestMoveFileNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := os.WriteFile(dst, []byte("existing"), 0o644); err != nil {
		t.Fatalf("write destination: %v", err)
	}

	err := fileutil.MoveFile(src, dst)
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected os.ErrExist, got %v", err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "existing" {
		t.Fatalf("destination was clobbered: %q", data)
	}
	if !fileutil.Exists(src) {
		t.Fatal("source should survive a refused move")
	}
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := fileutil.MoveFile(filepath.Join(dir, "absent"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	// The claimed destination must not linger after a failed move.
	if fileutil.Exists(filepath.Join(dir, "dst")) {
		t.Fatal("failed move left destination claim behind")
	}
}

func TestSplitExt(t *testing.T) {
	cases := []struct {
		name string
		stem string
		ext  string
	}{
		{"report.pdf", "report", ".pdf"},
		{"archive.tar.gz", "archive.tar", ".gz"},
		{"noext", "noext", ""},
		{".hidden", "", ".hidden"},
		{"name (1).txt", "name (1)", ".txt"},
	}
	for _, tc := range cases {
		stem, ext := fileutil.SplitExt(tc.name)
		if stem != tc.stem || ext != tc.ext {
			t.Fatalf("SplitExt(%q) = (%q, %q), want (%q, %q)", tc.name, stem, ext, tc.stem, tc.ext)
		}
	}
}

// Package fileutil provides filesystem helpers shared by the organizer and
// duplicate resolver.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// MoveFile renames src to dst without ever overwriting an existing dst.
// When src and dst sit on different filesystems the rename falls back to a
// copy followed by removal of the source. Returns os.ErrExist if dst is
// already occupied.
func MoveFile(src, dst string) error {
	// Claim dst atomically first so a concurrent move can never win the
	// same name. O_EXCL is the arbiter; rename would silently replace.
	claim, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return os.ErrExist
		}
		return fmt.Errorf("claim destination: %w", err)
	}
	if err := claim.Close(); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("claim destination: %w", err)
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if !errors.Is(err, syscall.EXDEV) {
		_ = os.Remove(dst)
		return fmt.Errorf("rename: %w", err)
	}

	if err := copyContents(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

func copyContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return fmt.Errorf("sync destination: %w", err)
	}
	return out.Close()
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

// Exists reports whether path names an existing file or directory.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// SplitExt splits a filename into stem and extension, keeping the dot with
// the extension: "name (1).tar.gz" -> ("name (1).tar", ".gz").
func SplitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return name[:len(name)-len(ext)], ext
}

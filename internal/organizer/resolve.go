package organizer

import (
	"fmt"
	"path/filepath"

	"tidy/internal/fileutil"
)

// resolveUnique returns the first destination path in dir that no existing
// file occupies, starting with the original filename and appending " (N)"
// before the extension on each collision: report.pdf, report (1).pdf, and so
// on. The answer is only a candidate; the atomic claim in fileutil.MoveFile
// is the arbiter when two moves race for the same name.
func resolveUnique(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if !fileutil.Exists(candidate) {
		return candidate
	}
	stem, ext := fileutil.SplitExt(name)
	for counter := 1; ; counter++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, counter, ext))
		if !fileutil.Exists(candidate) {
			return candidate
		}
	}
}

// Package ignore filters out filenames the organizer must never touch:
// OS metadata files and in-progress download markers.
package ignore

import (
	"path/filepath"
	"strings"

	"tidy/internal/config"
)

// Filter is a stateless predicate over filenames. It is safe for concurrent
// use; construct a new Filter on config reload.
type Filter struct {
	names      map[string]struct{}
	extensions map[string]struct{}
}

// NewFilter builds a filter from ignore-name and ignore-extension sets.
// Matching is case-insensitive for both.
func NewFilter(names, extensions []string) *Filter {
	f := &Filter{
		names:      make(map[string]struct{}, len(names)),
		extensions: make(map[string]struct{}, len(extensions)),
	}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			f.names[name] = struct{}{}
		}
	}
	for _, ext := range extensions {
		if normalized := config.NormalizeExtension(ext); normalized != "" {
			f.extensions[normalized] = struct{}{}
		}
	}
	return f
}

// FromConfig builds a filter from the ignore section of the configuration.
func FromConfig(cfg *config.Config) *Filter {
	if cfg == nil {
		return NewFilter(nil, nil)
	}
	return NewFilter(cfg.Ignore.Names, cfg.Ignore.Extensions)
}

// Ignored reports whether the file at path should be dropped silently.
func (f *Filter) Ignored(path string) bool {
	base := filepath.Base(path)
	if _, ok := f.names[strings.ToLower(base)]; ok {
		return true
	}
	ext := config.NormalizeExtension(filepath.Ext(base))
	if ext == "" {
		return false
	}
	_, ok := f.extensions[ext]
	return ok
}

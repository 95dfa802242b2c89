// Package router maps file extensions to destination categories using an
// atomically swappable route table layered over a built-in fallback table.
package router

import (
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tidy/internal/config"
)

var titleCaser = cases.Title(language.English)

// Table is an immutable snapshot of the configured routing state. Lookups
// never observe a partially applied table; Reload installs a fresh snapshot
// in one atomic swap.
type Table struct {
	byExtension map[string]string
	fallback    string
}

// NewTable builds a snapshot from a category -> extensions mapping.
// Extensions are normalized (lower-cased, leading dot stripped); category
// names are title-cased for consistent folder naming.
func NewTable(routes map[string][]string, fallback string) *Table {
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = "Other"
	}
	t := &Table{
		byExtension: make(map[string]string),
		fallback:    titleCaser.String(fallback),
	}
	for category, extensions := range routes {
		category = titleCaser.String(strings.TrimSpace(category))
		if category == "" {
			continue
		}
		for _, ext := range extensions {
			normalized := config.NormalizeExtension(ext)
			if normalized == "" {
				continue
			}
			if _, claimed := t.byExtension[normalized]; !claimed {
				t.byExtension[normalized] = category
			}
		}
	}
	return t
}

// Fallback returns the category used when no table entry claims an extension.
func (t *Table) Fallback() string {
	return t.fallback
}

// Categories returns the distinct category names in the snapshot, sorted.
func (t *Table) Categories() []string {
	seen := map[string]struct{}{t.fallback: {}}
	for _, category := range t.byExtension {
		seen[category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Router resolves extensions against the current table snapshot, then the
// built-in table, then the fallback category.
type Router struct {
	table atomic.Pointer[Table]
}

// New constructs a router seeded with the given snapshot.
func New(table *Table) *Router {
	r := &Router{}
	if table == nil {
		table = NewTable(nil, "")
	}
	r.table.Store(table)
	return r
}

// FromConfig constructs a router from the routes section of the configuration.
func FromConfig(cfg *config.Config) *Router {
	if cfg == nil {
		return New(nil)
	}
	return New(NewTable(cfg.Routes.Table, cfg.Routes.Fallback))
}

// Reload atomically replaces the route table snapshot. In-flight lookups
// keep the table they started with.
func (r *Router) Reload(table *Table) {
	if table == nil {
		table = NewTable(nil, "")
	}
	r.table.Store(table)
}

// Snapshot returns the current table.
func (r *Router) Snapshot() *Table {
	return r.table.Load()
}

// Route returns the destination category for a filename extension.
// Lookup order: configured table, built-in table, fallback category.
func (r *Router) Route(ext string) string {
	normalized := config.NormalizeExtension(ext)
	table := r.table.Load()
	if normalized == "" {
		return table.fallback
	}
	if category, ok := table.byExtension[normalized]; ok {
		return category
	}
	if category, ok := builtinRoutes[normalized]; ok {
		return category
	}
	return table.fallback
}

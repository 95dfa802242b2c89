// Package dupes groups files that share a content digest and applies
// resolution policies that delete redundant copies.
package dupes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"tidy/internal/logging"
	"tidy/internal/store"
)

// Policy selects which copies of a duplicate group survive resolution.
type Policy string

const (
	// PolicyKeepNewest retains the most recently modified copy. Ties break
	// toward the lexicographically smaller path.
	PolicyKeepNewest Policy = "keep-newest"
	// PolicyKeepLargest retains the largest copy, then the newest, then the
	// lexicographically smaller path.
	PolicyKeepLargest Policy = "keep-largest"
	// PolicyDeleteAll deletes every copy. Refused when the group has a single
	// record; use PolicyDeletePaths naming that copy to force it.
	PolicyDeleteAll Policy = "delete-all"
	// PolicyDeletePaths deletes exactly the caller-named paths and leaves the
	// rest of the group untouched.
	PolicyDeletePaths Policy = "delete-paths"
)

// ParsePolicy maps a policy name from the CLI or IPC surface.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(name) {
	case PolicyKeepNewest, PolicyKeepLargest, PolicyDeleteAll, PolicyDeletePaths:
		return Policy(name), nil
	default:
		return "", fmt.Errorf("unknown policy %q", name)
	}
}

// Group is one set of files sharing a digest, newest-first.
type Group struct {
	Digest    string
	Files     []store.FileRecord
	TotalSize int64
	// WastedSize is the space reclaimed by keeping one copy: total size
	// minus the copy PolicyKeepNewest would retain.
	WastedSize int64
}

// PathError reports a per-path resolution failure. The record stays in the
// database so a later resolve can retry it.
type PathError struct {
	Path string
	Err  error
}

// Resolution is the per-path outcome of resolving one group.
type Resolution struct {
	Digest    string
	Policy    Policy
	Kept      []string
	Deleted   []string
	Failed    []PathError
	Reclaimed int64
}

// Summary renders a one-line human-readable outcome.
func (r Resolution) Summary() string {
	msg := fmt.Sprintf("deleted %d of %d copies, reclaimed %s",
		len(r.Deleted), len(r.Deleted)+len(r.Kept)+len(r.Failed), humanize.Bytes(uint64(r.Reclaimed)))
	if len(r.Failed) > 0 {
		msg += fmt.Sprintf(" (%d failed)", len(r.Failed))
	}
	return msg
}

// Resolver lists duplicate groups and executes resolution policies against
// the hash database and the filesystem.
type Resolver struct {
	store  *store.Store
	logger *slog.Logger
}

// NewResolver constructs a resolver over the given store.
func NewResolver(st *store.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  st,
		logger: logging.NewComponentLogger(logger, "dupes"),
	}
}

// List returns every duplicate group, ordered by wasted size descending so
// the most profitable groups surface first.
func (r *Resolver) List(ctx context.Context) ([]Group, error) {
	entries, err := r.store.DuplicateEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list duplicates: %w", err)
	}

	groups := make([]Group, 0, len(entries))
	for _, entry := range entries {
		group := Group{
			Digest:    entry.Digest,
			Files:     entry.Files,
			TotalSize: entry.TotalSize(),
		}
		if len(entry.Files) > 0 {
			group.WastedSize = group.TotalSize - entry.Files[0].Size
		}
		groups = append(groups, group)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].WastedSize > groups[j].WastedSize
	})
	return groups, nil
}

// Resolve applies policy to the group identified by digest. Deletion is
// per-path: a failed delete is reported in the resolution and keeps its
// database record, while the remaining paths still proceed. Deleting a path
// that is already gone counts as success; its stale record is dropped.
func (r *Resolver) Resolve(ctx context.Context, digest string, policy Policy, paths []string) (*Resolution, error) {
	entry, err := r.store.Entry(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}
	if entry == nil || len(entry.Files) == 0 {
		return nil, fmt.Errorf("no duplicate group for digest %q", digest)
	}

	keep, err := selectKept(entry.Files, policy, paths)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Digest: digest, Policy: policy}
	for _, rec := range entry.Files {
		if keep[rec.Path] {
			res.Kept = append(res.Kept, rec.Path)
			continue
		}

		if err := os.Remove(rec.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			res.Failed = append(res.Failed, PathError{Path: rec.Path, Err: err})
			r.logger.Warn("delete duplicate failed",
				logging.String("path", rec.Path),
				logging.String("digest", digest),
				logging.Error(err))
			continue
		}
		if _, err := r.store.RemoveFile(ctx, rec.Path); err != nil {
			res.Failed = append(res.Failed, PathError{Path: rec.Path, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, rec.Path)
		res.Reclaimed += rec.Size
	}

	r.logger.Info("resolved duplicate group",
		logging.String("digest", digest),
		logging.String("policy", string(policy)),
		logging.Int("deleted", len(res.Deleted)),
		logging.Int("failed", len(res.Failed)),
		logging.String("reclaimed", humanize.Bytes(uint64(res.Reclaimed))))
	return res, nil
}

// selectKept decides which paths survive. The records arrive newest-first
// from the store; keep-largest re-sorts its own copy.
func selectKept(files []store.FileRecord, policy Policy, paths []string) (map[string]bool, error) {
	keep := make(map[string]bool)
	switch policy {
	case PolicyKeepNewest:
		keep[files[0].Path] = true
	case PolicyKeepLargest:
		sorted := make([]store.FileRecord, len(files))
		copy(sorted, files)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Size != sorted[j].Size {
				return sorted[i].Size > sorted[j].Size
			}
			if !sorted[i].ModifiedAt.Equal(sorted[j].ModifiedAt) {
				return sorted[i].ModifiedAt.After(sorted[j].ModifiedAt)
			}
			return sorted[i].Path < sorted[j].Path
		})
		keep[sorted[0].Path] = true
	case PolicyDeleteAll:
		if len(files) < 2 {
			return nil, errors.New("refusing to delete the only copy; use delete-paths to force")
		}
	case PolicyDeletePaths:
		if len(paths) == 0 {
			return nil, errors.New("delete-paths requires at least one path")
		}
		doomed := make(map[string]bool, len(paths))
		inGroup := make(map[string]bool, len(files))
		for _, rec := range files {
			inGroup[rec.Path] = true
		}
		for _, path := range paths {
			if !inGroup[path] {
				return nil, fmt.Errorf("path %q is not part of the group", path)
			}
			doomed[path] = true
		}
		for _, rec := range files {
			if !doomed[rec.Path] {
				keep[rec.Path] = true
			}
		}
	default:
		return nil, fmt.Errorf("unknown policy %q", policy)
	}
	return keep, nil
}

// Package organizer executes the move pipeline for settled files: route to a
// category, resolve a collision-free destination, move, hash, and record the
// result in the hash database and organize log.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tidy/internal/config"
	"tidy/internal/fileutil"
	"tidy/internal/hasher"
	"tidy/internal/logging"
	"tidy/internal/router"
	"tidy/internal/store"
	"tidy/internal/watcher"
)

// Outcome classifies how an event was handled.
type Outcome int

const (
	OutcomeOrganized Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOrganized:
		return "organized"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the terminal state of one processed event.
type Result struct {
	EventID     string
	Outcome     Outcome
	Source      string
	Destination string
	Category    string
	Err         error
}

// Counters tracks processed-event totals since daemon start.
type Counters struct {
	Organized atomic.Int64
	Skipped   atomic.Int64
	Failed    atomic.Int64
}

// Organizer moves settled files into category directories and keeps the hash
// database consistent with what lands on disk. All methods are safe for
// concurrent use; per-path and per-destination keyed locks serialize the
// operations that must not interleave.
type Organizer struct {
	libraryDir string
	retries    int
	retryDelay time.Duration

	router   *router.Router
	store    *store.Store
	logger   *slog.Logger
	counters Counters

	pathLocks *keyedMutex
	destLocks *keyedMutex
}

// New constructs an organizer from configuration.
func New(cfg *config.Config, rt *router.Router, st *store.Store, logger *slog.Logger) *Organizer {
	return &Organizer{
		libraryDir: cfg.Paths.LibraryDir,
		retries:    cfg.Watch.MoveRetries,
		retryDelay: cfg.MoveRetryDelay(),
		router:     rt,
		store:      st,
		logger:     logging.NewComponentLogger(logger, "organizer"),
		pathLocks:  newKeyedMutex(cfg.LockHold()),
		destLocks:  newKeyedMutex(cfg.LockHold()),
	}
}

// CountersSnapshot returns the current processed-event totals.
func (o *Organizer) CountersSnapshot() (organized, skipped, failed int64) {
	return o.counters.Organized.Load(), o.counters.Skipped.Load(), o.counters.Failed.Load()
}

// Process handles one watcher event to completion and returns its terminal
// result. Every call gets a fresh event ID; an event that cannot finish is
// Failed, never silently dropped.
func (o *Organizer) Process(ctx context.Context, evt watcher.Event) Result {
	res := Result{
		EventID: uuid.NewString(),
		Source:  evt.Path,
	}

	release := o.pathLocks.Acquire(evt.Path)
	defer release()

	info, err := os.Lstat(evt.Path)
	if err != nil {
		// Vanished between settle and processing; nothing to do.
		res.Outcome = OutcomeSkipped
		o.finish(res, evt)
		return res
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		res.Outcome = OutcomeSkipped
		o.finish(res, evt)
		return res
	}

	name := filepath.Base(evt.Path)
	category := o.router.Route(filepath.Ext(name))
	destDir := filepath.Join(o.libraryDir, category)
	res.Category = category

	if filepath.Dir(evt.Path) == destDir {
		// Already where it belongs; re-moving would only churn names.
		res.Outcome = OutcomeSkipped
		o.finish(res, evt)
		return res
	}

	if err := fileutil.EnsureDir(destDir); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		o.finish(res, evt)
		return res
	}

	releaseDest := o.destLocks.Acquire(destDir)
	defer releaseDest()

	destination, err := o.moveWithRetry(ctx, evt.Path, destDir, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			res.Outcome = OutcomeSkipped
		} else {
			res.Outcome = OutcomeFailed
			res.Err = err
		}
		o.finish(res, evt)
		return res
	}
	res.Destination = destination

	if err := o.record(ctx, res); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		o.finish(res, evt)
		return res
	}

	res.Outcome = OutcomeOrganized
	o.finish(res, evt)
	return res
}

// moveWithRetry moves src into destDir under a collision-free name. A lost
// race for a destination name resolves a fresh candidate without consuming a
// retry; transient failures back off with doubling delays up to the
// configured attempt count.
func (o *Organizer) moveWithRetry(ctx context.Context, src, destDir, name string) (string, error) {
	attempts := o.retries
	if attempts < 1 {
		attempts = 1
	}
	delay := o.retryDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		for {
			destination := resolveUnique(destDir, name)
			err := fileutil.MoveFile(src, destination)
			if err == nil {
				return destination, nil
			}
			if errors.Is(err, os.ErrExist) {
				// Another move claimed the candidate first; pick the next one.
				continue
			}
			if errors.Is(err, os.ErrNotExist) && !fileutil.Exists(src) {
				return "", os.ErrNotExist
			}
			lastErr = err
			break
		}

		if attempt < attempts {
			o.logger.Warn("move attempt failed, retrying",
				logging.String("path", src),
				logging.Int("attempt", attempt),
				logging.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return "", fmt.Errorf("move %q after %d attempts: %w", src, attempts, lastErr)
}

// record hashes the moved file and writes the database side of the move: the
// hash index entry and the organize log line. The move is not complete until
// the log entry is durably written.
func (o *Organizer) record(ctx context.Context, res Result) error {
	info, err := os.Stat(res.Destination)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}

	digest, err := hasher.HashFile(ctx, res.Destination)
	if err != nil {
		return fmt.Errorf("hash destination: %w", err)
	}

	if err := o.store.UpsertFile(ctx, digest, store.FileRecord{
		Path:       res.Destination,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
	}); err != nil {
		return fmt.Errorf("index file: %w", err)
	}

	if _, err := o.store.AppendOrganized(ctx, store.OrganizedRecord{
		EventID:         res.EventID,
		OriginalPath:    res.Source,
		DestinationPath: res.Destination,
		Category:        res.Category,
		Size:            info.Size(),
		OrganizedAt:     time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("append organize log: %w", err)
	}
	return nil
}

func (o *Organizer) finish(res Result, evt watcher.Event) {
	switch res.Outcome {
	case OutcomeOrganized:
		o.counters.Organized.Add(1)
		o.logger.Info("organized",
			logging.String("event_id", res.EventID),
			logging.String("source", res.Source),
			logging.String("destination", res.Destination),
			logging.String("category", res.Category))
	case OutcomeSkipped:
		o.counters.Skipped.Add(1)
		o.logger.Debug("skipped",
			logging.String("event_id", res.EventID),
			logging.String("source", res.Source),
			logging.String("kind", evt.Kind.String()))
	case OutcomeFailed:
		o.counters.Failed.Add(1)
		o.logger.Error("organize failed",
			logging.String("event_id", res.EventID),
			logging.String("source", res.Source),
			logging.Error(res.Err))
	}
}

// Rescan walks the library and re-hashes every regular file into the hash
// database. Used after a corrupt database was discarded and on demand over
// IPC. Returns the number of files indexed.
func (o *Organizer) Rescan(ctx context.Context) (int64, error) {
	var indexed int64
	err := filepath.WalkDir(o.libraryDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		digest, err := hasher.HashFile(ctx, path)
		if err != nil {
			o.logger.Warn("rescan hash failed", logging.String("path", path), logging.Error(err))
			return nil
		}
		if err := o.store.UpsertFile(ctx, digest, store.FileRecord{
			Path:       path,
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		}); err != nil {
			return fmt.Errorf("index %q: %w", path, err)
		}
		indexed++
		return nil
	})
	if err != nil {
		return indexed, fmt.Errorf("rescan library: %w", err)
	}
	return indexed, nil
}

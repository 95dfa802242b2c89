// Package watcher subscribes to filesystem notifications for the monitored
// root and turns them into organize events, coalescing modify bursts with a
// per-path debounce window.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"tidy/internal/ignore"
	"tidy/internal/logging"
)

// Kind tags a filesystem event.
type Kind int

const (
	KindCreated Kind = iota
	KindMoved
	KindModified
)

func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindMoved:
		return "moved"
	case KindModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Event is one observed filesystem change. Transient; discarded after
// processing.
type Event struct {
	Path string
	Kind Kind
	Time time.Time
}

// Watcher monitors one root recursively. Created and moved-in files are
// emitted immediately; modified files are emitted only after the debounce
// window passes without another modification.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger

	filter atomic.Pointer[ignore.Filter]

	fs       *fsnotify.Watcher
	events   chan Event
	pending  debounceIndex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a watcher for root. Events are delivered on Events();
// delivery is best-effort: when the consumer falls behind, events are
// dropped with a warning rather than stalling notification intake.
func New(root string, debounce time.Duration, filter *ignore.Filter, logger *slog.Logger) *Watcher {
	w := &Watcher{
		root:     root,
		debounce: debounce,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		events:   make(chan Event, 256),
	}
	if filter == nil {
		filter = ignore.NewFilter(nil, nil)
	}
	w.filter.Store(filter)
	w.pending.init()
	return w
}

// Events returns the channel organize events are delivered on. It is closed
// after Stop once all pending debounce timers have drained.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// SetFilter atomically replaces the ignore filter.
func (w *Watcher) SetFilter(filter *ignore.Filter) {
	if filter == nil {
		filter = ignore.NewFilter(nil, nil)
	}
	w.filter.Store(filter)
}

// Root returns the monitored root path.
func (w *Watcher) Root() string {
	return w.root
}

// Start begins watching the root and every directory below it.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fs = fsw

	if err := w.addRecursive(w.root); err != nil {
		_ = fsw.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop shuts the watcher down and waits for in-flight timers.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	close(w.events)
}

// Enqueue injects a synthetic event, used by the startup scan for files
// that arrived while the daemon was down. Ignore filtering still applies.
func (w *Watcher) Enqueue(evt Event) {
	if w.filter.Load().Ignored(evt.Path) {
		return
	}
	w.deliver(evt)
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		w.pending.cancelAll()
		if w.fs != nil {
			_ = w.fs.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("notification error", logging.Error(err))
		}
	}
}

// handle maps fsnotify operations onto the event model. Delivery may be
// concurrent and unordered across paths; nothing here assumes otherwise.
func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Lstat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("watch new directory", logging.String("path", path), logging.Error(err))
			}
			return
		}
		// A file moved into the root arrives as Create; fsnotify reports
		// the rename on the old name only.
		kind := KindCreated
		if event.Op.Has(fsnotify.Rename) {
			kind = KindMoved
		}
		w.emit(Event{Path: path, Kind: kind, Time: time.Now()})
	case event.Op.Has(fsnotify.Write):
		w.emit(Event{Path: path, Kind: KindModified, Time: time.Now()})
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		// The path is gone; a pending debounce would only chase a ghost.
		w.pending.cancel(path)
	}
}

func (w *Watcher) emit(evt Event) {
	if w.filter.Load().Ignored(evt.Path) {
		return
	}

	switch evt.Kind {
	case KindModified:
		w.pending.schedule(evt.Path, w.debounce, func() {
			w.deliver(Event{Path: evt.Path, Kind: KindModified, Time: time.Now()})
		})
	default:
		// Created and moved-in files go straight through; in-progress
		// downloads are already held back by their marker extensions.
		w.deliver(evt)
	}
}

func (w *Watcher) deliver(evt Event) {
	select {
	case w.events <- evt:
	default:
		w.logger.Warn("event queue full, dropping event",
			logging.String("path", evt.Path),
			logging.String("kind", evt.Kind.String()))
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return err
		}
		return nil
	})
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"tidy/internal/config"
	"tidy/internal/dupes"
	"tidy/internal/fileutil"
	"tidy/internal/ignore"
	"tidy/internal/logging"
	"tidy/internal/organizer"
	"tidy/internal/router"
	"tidy/internal/store"
	"tidy/internal/watcher"
)

const workerCount = 4

// Daemon coordinates the watcher, organizer workers, and maintenance sweep,
// and enforces single-instance execution via a lock file.
type Daemon struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger

	store     *store.Store
	router    *router.Router
	watcher   *watcher.Watcher
	organizer *organizer.Organizer
	resolver  *dupes.Resolver

	logPath  string
	lockPath string
	lock     *flock.Flock

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	StartedAt      time.Time
	WatchDir       string
	LibraryDir     string
	DBPath         string
	LockFilePath   string
	DBRecovered    bool
	Organized      int64
	Skipped        int64
	Failed         int64
	DatabaseCounts store.Counts
}

// New constructs a daemon with initialized subsystems. configPath is the
// resolved config file location, re-read on Reload.
func New(cfg *config.Config, configPath string, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	rt := router.FromConfig(cfg)
	w := watcher.New(cfg.Paths.WatchDir, cfg.DebounceWindow(), ignore.FromConfig(cfg), logger)
	lockPath := filepath.Join(cfg.Paths.DataDir, "tidyd.lock")

	return &Daemon{
		cfg:        cfg,
		configPath: configPath,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      st,
		router:     rt,
		watcher:    w,
		organizer:  organizer.New(cfg, rt, st, logger),
		resolver:   dupes.NewResolver(st, logger),
		logPath:    filepath.Join(cfg.Paths.LogDir, "tidy.log"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the watcher, the organize
// workers, the startup scan, and the maintenance sweep.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tidy daemon instance is already running")
	}

	if err := fileutil.EnsureDir(d.cfg.Paths.WatchDir); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.watcher.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start watcher: %w", err)
	}

	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	d.wg.Add(1)
	go d.sweepLoop(d.ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.startupScan(d.ctx)
		if d.store.Recovered() {
			d.logger.Warn("hash database was corrupt and has been reset; rebuilding index from library")
			if indexed, err := d.organizer.Rescan(d.ctx); err != nil {
				d.logger.Error("library rescan failed", logging.Error(err))
			} else {
				d.logger.Info("library rescan complete", logging.Int64("indexed", indexed))
			}
		}
	}()

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("tidy daemon started",
		logging.String("watch_dir", d.cfg.Paths.WatchDir),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop halts event intake and waits for in-flight work, then releases the
// instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.Stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("tidy daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return d.logPath
}

func (d *Daemon) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case evt, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			d.organizer.Process(d.ctx, evt)
		}
	}
}

// startupScan enqueues every file already sitting in the watch root, so
// arrivals during downtime are not lost. Category directories under an
// in-place library are skipped; their contents are already organized.
func (d *Daemon) startupScan(ctx context.Context) {
	var enqueued int
	err := filepath.WalkDir(d.cfg.Paths.WatchDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		d.watcher.Enqueue(watcher.Event{Path: path, Kind: watcher.KindCreated, Time: time.Now()})
		enqueued++
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("startup scan incomplete", logging.Error(err))
	}
	if enqueued > 0 {
		d.logger.Info("startup scan enqueued pending files", logging.Int("count", enqueued))
	}
}

func (d *Daemon) sweepLoop(ctx context.Context) {
	defer d.wg.Done()

	if d.cfg.Maintenance.SweepOnStartup {
		d.runSweep(ctx)
	}

	interval := d.cfg.SweepInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runSweep(ctx)
		}
	}
}

func (d *Daemon) runSweep(ctx context.Context) {
	result, err := d.store.Sweep(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			d.logger.Error("maintenance sweep failed", logging.Error(err))
		}
		return
	}
	if result.RecordsRemoved > 0 || result.EntriesPruned > 0 {
		d.logger.Info("maintenance sweep",
			logging.Int64("records_removed", result.RecordsRemoved),
			logging.Int64("entries_pruned", result.EntriesPruned))
	}
}

// Status reports daemon runtime information and database counts.
func (d *Daemon) Status(ctx context.Context) Status {
	organized, skipped, failed := d.organizer.CountersSnapshot()
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    d.startedAt,
		WatchDir:     d.cfg.Paths.WatchDir,
		LibraryDir:   d.cfg.Paths.LibraryDir,
		DBPath:       d.store.Path(),
		LockFilePath: d.lockPath,
		DBRecovered:  d.store.Recovered(),
		Organized:    organized,
		Skipped:      skipped,
		Failed:       failed,
	}
	if counts, err := d.store.Stats(ctx); err == nil {
		status.DatabaseCounts = counts
	}
	return status
}

// Reload re-reads the config file and applies the routing table and ignore
// rules without interrupting in-flight work. Path and daemon-level settings
// still require a restart.
func (d *Daemon) Reload(context.Context) error {
	cfg, _, _, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	d.router.Reload(router.NewTable(cfg.Routes.Table, cfg.Routes.Fallback))
	d.watcher.SetFilter(ignore.FromConfig(cfg))
	d.logger.Info("configuration reloaded",
		logging.String("config", d.configPath),
		logging.Int("categories", len(d.router.Snapshot().Categories())))
	return nil
}

// Rescan re-hashes the library into the hash database.
func (d *Daemon) Rescan(ctx context.Context) (int64, error) {
	return d.organizer.Rescan(ctx)
}

// History returns organize log records matching the filter.
func (d *Daemon) History(ctx context.Context, filter store.HistoryFilter) ([]store.OrganizedRecord, error) {
	return d.store.History(ctx, filter)
}

// CategoryCounts returns organize totals per category.
func (d *Daemon) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	return d.store.CategoryCounts(ctx)
}

// ListDuplicates returns the current duplicate groups.
func (d *Daemon) ListDuplicates(ctx context.Context) ([]dupes.Group, error) {
	return d.resolver.List(ctx)
}

// ResolveDuplicates applies a policy to one duplicate group.
func (d *Daemon) ResolveDuplicates(ctx context.Context, digest string, policy dupes.Policy, paths []string) (*dupes.Resolution, error) {
	return d.resolver.Resolve(ctx, digest, policy, paths)
}

// Watched describes the monitored root and active routing snapshot.
func (d *Daemon) Watched() (root string, debounce time.Duration, categories []string, fallback string) {
	snapshot := d.router.Snapshot()
	return d.watcher.Root(), d.cfg.DebounceWindow(), snapshot.Categories(), snapshot.Fallback()
}

package organizer_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tidy/internal/config"
	"tidy/internal/logging"
	"tidy/internal/organizer"
	"tidy/internal/router"
	"tidy/internal/store"
	"tidy/internal/testsupport"
	"tidy/internal/watcher"
)

func newOrganizer(t *testing.T, cfg *config.Config) (*organizer.Organizer, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, cfg)
	rt := router.FromConfig(cfg)
	return organizer.New(cfg, rt, st, logging.NewNop()), st
}

func writeSource(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func event(path string) watcher.Event {
	return watcher.Event{Path: path, Kind: watcher.KindCreated, Time: time.Now()}
}

func TestProcessOrganizesFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org, st := newOrganizer(t, cfg)
	ctx := context.Background()

	src := writeSource(t, cfg.Paths.WatchDir, "report.pdf", []byte("pdf bytes"))
	res := org.Process(ctx, event(src))

	if res.Outcome != organizer.OutcomeOrganized {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
	}
	want := filepath.Join(cfg.Paths.LibraryDir, "Documents", "report.pdf")
	if res.Destination != want {
		t.Fatalf("destination = %q, want %q", res.Destination, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if _, err := os.Lstat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}

	history, err := st.History(ctx, store.HistoryFilter{})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].DestinationPath != want || history[0].Category != "Documents" {
		t.Fatalf("unexpected history: %#v", history)
	}
	if history[0].EventID != res.EventID {
		t.Fatalf("history event id %q != result %q", history[0].EventID, res.EventID)
	}

	paths, err := st.RecordPaths(ctx)
	if err != nil {
		t.Fatalf("RecordPaths failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != want {
		t.Fatalf("hash database missed the move: %v", paths)
	}
}

func TestProcessResolvesNameCollision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org, _ := newOrganizer(t, cfg)
	ctx := context.Background()

	occupied := filepath.Join(cfg.Paths.LibraryDir, "Documents")
	writeSource(t, occupied, "report.pdf", []byte("already here"))
	writeSource(t, occupied, "report (1).pdf", []byte("also here"))

	src := writeSource(t, cfg.Paths.WatchDir, "report.pdf", []byte("newcomer"))
	res := org.Process(ctx, event(src))

	if res.Outcome != organizer.OutcomeOrganized {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
	}
	want := filepath.Join(occupied, "report (2).pdf")
	if res.Destination != want {
		t.Fatalf("destination = %q, want %q", res.Destination, want)
	}
	data, err := os.ReadFile(filepath.Join(occupied, "report.pdf"))
	if err != nil || string(data) != "already here" {
		t.Fatalf("existing file was disturbed: %q %v", data, err)
	}
}

func TestProcessConcurrentSameName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org, _ := newOrganizer(t, cfg)
	ctx := context.Background()

	var sources []string
	for _, sub := range []string{"a", "b", "c"} {
		dir := filepath.Join(cfg.Paths.WatchDir, sub)
		sources = append(sources, writeSource(t, dir, "report.pdf", []byte("from "+sub)))
	}

	results := make([]organizer.Result, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src string) {
			defer wg.Done()
			results[i] = org.Process(ctx, event(src))
		}(i, src)
	}
	wg.Wait()

	destinations := map[string]bool{}
	for _, res := range results {
		if res.Outcome != organizer.OutcomeOrganized {
			t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
		}
		if destinations[res.Destination] {
			t.Fatalf("two moves landed on %q", res.Destination)
		}
		destinations[res.Destination] = true
	}
	docs := filepath.Join(cfg.Paths.LibraryDir, "Documents")
	for _, name := range []string{"report.pdf", "report (1).pdf", "report (2).pdf"} {
		if _, err := os.Stat(filepath.Join(docs, name)); err != nil {
			t.Fatalf("expected %q to exist: %v", name, err)
		}
	}
}

func TestProcessSkipsVanishedSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org, st := newOrganizer(t, cfg)
	ctx := context.Background()

	res := org.Process(ctx, event(filepath.Join(cfg.Paths.WatchDir, "ghost.txt")))
	if res.Outcome != organizer.OutcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", res.Outcome)
	}

	history, err := st.History(ctx, store.HistoryFilter{})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("skip must not log a move: %#v", history)
	}
}

func TestProcessSkipsFileAlreadyInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org, _ := newOrganizer(t, cfg)
	ctx := context.Background()

	path := writeSource(t, filepath.Join(cfg.Paths.LibraryDir, "Documents"), "settled.pdf", []byte("content"))
	res := org.Process(ctx, event(path))

	if res.Outcome != organizer.OutcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", res.Outcome)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("in-place file moved: %v", err)
	}
}

func TestProcessRoutesUnknownExtensionToFallback(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRoutes(nil, "misc"))
	org, _ := newOrganizer(t, cfg)
	ctx := context.Background()

	src := writeSource(t, cfg.Paths.WatchDir, "data.qqq", []byte("mystery"))
	res := org.Process(ctx, event(src))

	if res.Outcome != organizer.OutcomeOrganized {
		t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
	}
	if res.Category != "Misc" {
		t.Fatalf("category = %q, want Misc", res.Category)
	}
}

func TestProcessCounters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org, _ := newOrganizer(t, cfg)
	ctx := context.Background()

	src := writeSource(t, cfg.Paths.WatchDir, "song.mp3", []byte("audio"))
	org.Process(ctx, event(src))
	org.Process(ctx, event(filepath.Join(cfg.Paths.WatchDir, "gone.txt")))

	organized, skipped, failed := org.CountersSnapshot()
	if organized != 1 || skipped != 1 || failed != 0 {
		t.Fatalf("counters = %d/%d/%d, want 1/1/0", organized, skipped, failed)
	}
}

func TestRescanIndexesLibrary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	org, st := newOrganizer(t, cfg)
	ctx := context.Background()

	writeSource(t, filepath.Join(cfg.Paths.LibraryDir, "Documents"), "a.pdf", []byte("one"))
	writeSource(t, filepath.Join(cfg.Paths.LibraryDir, "Images"), "b.jpg", []byte("two"))

	indexed, err := org.Rescan(ctx)
	if err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}
	if indexed != 2 {
		t.Fatalf("indexed = %d, want 2", indexed)
	}

	paths, err := st.RecordPaths(ctx)
	if err != nil {
		t.Fatalf("RecordPaths failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("unexpected indexed paths: %v", paths)
	}
}

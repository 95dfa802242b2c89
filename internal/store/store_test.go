package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tidy/internal/store"
	"tidy/internal/testsupport"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestUpsertAndEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	modified := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	err := st.UpsertFile(ctx, "digest-a", store.FileRecord{
		Path:       "/library/Documents/a.pdf",
		Size:       1024,
		ModifiedAt: modified,
	})
	if err != nil {
		t.Fatalf("UpsertFile failed: %v", err)
	}

	entry, err := st.Entry(ctx, "digest-a")
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if entry == nil || len(entry.Files) != 1 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry.Files[0].Path != "/library/Documents/a.pdf" || entry.Files[0].Size != 1024 {
		t.Fatalf("unexpected record: %#v", entry.Files[0])
	}
	if !entry.Files[0].ModifiedAt.Equal(modified) {
		t.Fatalf("modified time round-trip lost: %v", entry.Files[0].ModifiedAt)
	}
}

func TestUpsertRehomesPathAndPrunesEmptyEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := store.FileRecord{Path: "/library/a.txt", Size: 10, ModifiedAt: time.Now()}
	if err := st.UpsertFile(ctx, "digest-old", rec); err != nil {
		t.Fatalf("UpsertFile failed: %v", err)
	}
	// Same path, new content.
	if err := st.UpsertFile(ctx, "digest-new", rec); err != nil {
		t.Fatalf("UpsertFile failed: %v", err)
	}

	old, err := st.Entry(ctx, "digest-old")
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if old != nil {
		t.Fatalf("expected emptied entry to be pruned, got %#v", old)
	}
	updated, err := st.Entry(ctx, "digest-new")
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if updated == nil || len(updated.Files) != 1 {
		t.Fatalf("expected re-homed record, got %#v", updated)
	}
}

func TestRemoveFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := store.FileRecord{Path: "/library/a.txt", Size: 10, ModifiedAt: time.Now()}
	if err := st.UpsertFile(ctx, "digest-a", rec); err != nil {
		t.Fatalf("UpsertFile failed: %v", err)
	}

	removed, err := st.RemoveFile(ctx, "/library/a.txt")
	if err != nil {
		t.Fatalf("RemoveFile failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}
	entry, err := st.Entry(ctx, "digest-a")
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if entry != nil {
		t.Fatal("expected entry pruned after last record removed")
	}

	// Removing an unknown path is a successful no-op.
	removed, err = st.RemoveFile(ctx, "/library/unknown.txt")
	if err != nil {
		t.Fatalf("RemoveFile for unknown path failed: %v", err)
	}
	if removed {
		t.Fatal("unknown path should not report removal")
	}
}

func TestDuplicateEntriesOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	files := []store.FileRecord{
		{Path: "/library/c.txt", Size: 5, ModifiedAt: base.Add(time.Hour)},
		{Path: "/library/a.txt", Size: 5, ModifiedAt: base.Add(3 * time.Hour)},
		{Path: "/library/b.txt", Size: 5, ModifiedAt: base.Add(2 * time.Hour)},
	}
	for _, f := range files {
		if err := st.UpsertFile(ctx, "digest-dup", f); err != nil {
			t.Fatalf("UpsertFile failed: %v", err)
		}
	}
	if err := st.UpsertFile(ctx, "digest-solo", store.FileRecord{Path: "/library/solo.txt", Size: 1, ModifiedAt: base}); err != nil {
		t.Fatalf("UpsertFile failed: %v", err)
	}

	entries, err := st.DuplicateEntries(ctx)
	if err != nil {
		t.Fatalf("DuplicateEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one duplicate entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Digest != "digest-dup" || len(got.Files) != 3 {
		t.Fatalf("unexpected entry: %#v", got)
	}
	wantOrder := []string{"/library/a.txt", "/library/b.txt", "/library/c.txt"}
	for i, want := range wantOrder {
		if got.Files[i].Path != want {
			t.Fatalf("expected newest-first ordering %v, got %#v", wantOrder, got.Files)
		}
	}
	if got.TotalSize() != 15 {
		t.Fatalf("TotalSize = %d, want 15", got.TotalSize())
	}
}

func TestEntryOrdersSubsecondModifiedTimes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// 500ms formats shorter than 510ms under a variable-width layout, which
	// would make the older record sort as if it were newer.
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	files := []store.FileRecord{
		{Path: "/library/older.txt", Size: 5, ModifiedAt: base.Add(500 * time.Millisecond)},
		{Path: "/library/newer.txt", Size: 5, ModifiedAt: base.Add(510 * time.Millisecond)},
	}
	for _, f := range files {
		if err := st.UpsertFile(ctx, "digest-subsec", f); err != nil {
			t.Fatalf("UpsertFile failed: %v", err)
		}
	}

	entry, err := st.Entry(ctx, "digest-subsec")
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if entry == nil || len(entry.Files) != 2 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if entry.Files[0].Path != "/library/newer.txt" {
		t.Fatalf("sub-second mtimes mis-ordered: %#v", entry.Files)
	}

	entries, err := st.DuplicateEntries(ctx)
	if err != nil {
		t.Fatalf("DuplicateEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Files[0].Path != "/library/newer.txt" {
		t.Fatalf("duplicate listing mis-ordered: %#v", entries)
	}
}

func TestSweepRemovesMissingAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	live := filepath.Join(cfg.Paths.LibraryDir, "live.txt")
	writeFile(t, live, []byte("still here"))
	gone := filepath.Join(cfg.Paths.LibraryDir, "gone.txt")

	now := time.Now()
	for _, rec := range []store.FileRecord{
		{Path: live, Size: 10, ModifiedAt: now},
		{Path: gone, Size: 10, ModifiedAt: now},
	} {
		if err := st.UpsertFile(ctx, "digest-"+filepath.Base(rec.Path), rec); err != nil {
			t.Fatalf("UpsertFile failed: %v", err)
		}
	}

	result, err := st.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.RecordsRemoved != 1 || result.EntriesPruned != 1 {
		t.Fatalf("unexpected sweep result: %+v", result)
	}

	again, err := st.Sweep(ctx)
	if err != nil {
		t.Fatalf("second Sweep failed: %v", err)
	}
	if again.RecordsRemoved != 0 || again.EntriesPruned != 0 {
		t.Fatalf("sweep not idempotent: %+v", again)
	}

	paths, err := st.RecordPaths(ctx)
	if err != nil {
		t.Fatalf("RecordPaths failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != live {
		t.Fatalf("unexpected surviving paths: %v", paths)
	}
}

func TestOpenRecoversFromCorruptDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("mkdir data: %v", err)
	}
	if err := os.WriteFile(cfg.DatabasePath(), []byte("not a sqlite database"), 0o644); err != nil {
		t.Fatalf("write garbage db: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open should degrade to empty, got: %v", err)
	}
	defer st.Close()

	if !st.Recovered() {
		t.Fatal("expected Recovered()=true after discarding corrupt database")
	}
	counts, err := st.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if counts.FileRecords != 0 || counts.OrganizedTotal != 0 {
		t.Fatalf("expected empty database, got %+v", counts)
	}
}

func TestHistorySinceSubsecondBoundary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// 500ms formats shorter than 510ms under a variable-width layout; the
	// TEXT comparison would then put the record after the bound.
	at := time.Date(2026, 5, 1, 10, 0, 0, 500_000_000, time.UTC)
	rec := store.OrganizedRecord{
		EventID: "e1", OriginalPath: "/w/a.pdf", DestinationPath: "/l/Documents/a.pdf",
		Category: "Documents", Size: 1, OrganizedAt: at,
	}
	if _, err := st.AppendOrganized(ctx, rec); err != nil {
		t.Fatalf("AppendOrganized failed: %v", err)
	}

	after, err := st.History(ctx, store.HistoryFilter{Since: at.Add(10 * time.Millisecond)})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("record before the bound leaked through: %#v", after)
	}

	before, err := st.History(ctx, store.HistoryFilter{Since: at.Add(-10 * time.Millisecond)})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(before) != 1 {
		t.Fatalf("record after the bound missing: %#v", before)
	}
}

func TestHistoryFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	records := []store.OrganizedRecord{
		{EventID: "e1", OriginalPath: "/w/a.pdf", DestinationPath: "/l/Documents/a.pdf", Category: "Documents", Size: 1, OrganizedAt: base},
		{EventID: "e2", OriginalPath: "/w/b.jpg", DestinationPath: "/l/Images/b.jpg", Category: "Images", Size: 2, OrganizedAt: base.Add(time.Hour)},
		{EventID: "e3", OriginalPath: "/w/c.pdf", DestinationPath: "/l/Documents/c.pdf", Category: "Documents", Size: 3, OrganizedAt: base.Add(2 * time.Hour)},
	}
	for _, rec := range records {
		if _, err := st.AppendOrganized(ctx, rec); err != nil {
			t.Fatalf("AppendOrganized failed: %v", err)
		}
	}

	all, err := st.History(ctx, store.HistoryFilter{})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(all) != 3 || all[0].EventID != "e3" {
		t.Fatalf("expected newest-first history, got %#v", all)
	}

	docs, err := st.History(ctx, store.HistoryFilter{Category: "Documents"})
	if err != nil {
		t.Fatalf("History by category failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected two Documents records, got %d", len(docs))
	}

	recent, err := st.History(ctx, store.HistoryFilter{Since: base.Add(90 * time.Minute)})
	if err != nil {
		t.Fatalf("History since failed: %v", err)
	}
	if len(recent) != 1 || recent[0].EventID != "e3" {
		t.Fatalf("unexpected since-filter result: %#v", recent)
	}

	limited, err := st.History(ctx, store.HistoryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("History limited failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit not applied: %d records", len(limited))
	}

	counts, err := st.CategoryCounts(ctx)
	if err != nil {
		t.Fatalf("CategoryCounts failed: %v", err)
	}
	if counts["Documents"] != 2 || counts["Images"] != 1 {
		t.Fatalf("unexpected category counts: %v", counts)
	}
}

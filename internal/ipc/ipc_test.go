package ipc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tidy/internal/config"
	"tidy/internal/daemon"
	"tidy/internal/ipc"
	"tidy/internal/logging"
	"tidy/internal/store"
	"tidy/internal/testsupport"
)

func startServer(t *testing.T, cfg *config.Config) (*ipc.Client, *daemon.Daemon) {
	t.Helper()

	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, filepath.Join(t.TempDir(), "absent.toml"), st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)
	t.Cleanup(d.Stop)

	client, err := ipc.Dial(cfg.Paths.SocketPath)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, d
}

func seedDuplicate(t *testing.T, st *store.Store, dir string) string {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"copy-a.txt", "copy-b.txt"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("same bytes"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		rec := store.FileRecord{Path: path, Size: 10, ModifiedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := st.UpsertFile(ctx, "digest-pair", rec); err != nil {
			t.Fatalf("UpsertFile failed: %v", err)
		}
	}
	return "digest-pair"
}

func TestStartStatusStopRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, _ := startServer(t, cfg)

	started, err := client.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !started.Started {
		t.Fatalf("daemon did not start: %s", started.Message)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Running || status.WatchDir != cfg.Paths.WatchDir {
		t.Fatalf("unexpected status: %+v", status)
	}

	stopped, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !stopped.Stopped {
		t.Fatal("daemon did not stop")
	}
}

func TestSecondStartReportsFailureWithoutRPCError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, _ := startServer(t, cfg)

	if resp, err := client.Start(); err != nil || !resp.Started {
		t.Fatalf("first start failed: %v %+v", err, resp)
	}
	resp, err := client.Start()
	if err != nil {
		t.Fatalf("second start should not be an RPC error: %v", err)
	}
	if resp.Started || resp.Message == "" {
		t.Fatalf("expected refusal with message, got %+v", resp)
	}
}

func TestWatchedDescribesRoutingSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRoutes(map[string][]string{
		"papers": {"pdf"},
	}, ""))
	client, _ := startServer(t, cfg)

	resp, err := client.Watched()
	if err != nil {
		t.Fatalf("Watched failed: %v", err)
	}
	if resp.Root != cfg.Paths.WatchDir {
		t.Fatalf("root = %q", resp.Root)
	}
	found := false
	for _, category := range resp.Categories {
		if category == "Papers" {
			found = true
		}
	}
	if !found {
		t.Fatalf("configured category missing: %v", resp.Categories)
	}
}

func TestDupesListAndResolveOverIPC(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, d := startServer(t, cfg)
	_ = d

	st := testsupport.MustOpenStore(t, cfg)
	digest := seedDuplicate(t, st, cfg.Paths.LibraryDir)
	if err := st.Close(); err != nil {
		t.Fatalf("close seed store: %v", err)
	}

	list, err := client.DupesList()
	if err != nil {
		t.Fatalf("DupesList failed: %v", err)
	}
	if len(list.Groups) != 1 || list.Groups[0].Digest != digest {
		t.Fatalf("unexpected groups: %+v", list.Groups)
	}

	resolved, err := client.DupesResolve(ipc.DupesResolveRequest{Digest: digest, Policy: "keep-newest"})
	if err != nil {
		t.Fatalf("DupesResolve failed: %v", err)
	}
	if len(resolved.Resolution.Deleted) != 1 || len(resolved.Resolution.Kept) != 1 {
		t.Fatalf("unexpected resolution: %+v", resolved.Resolution)
	}

	if _, err := client.DupesResolve(ipc.DupesResolveRequest{Digest: digest, Policy: "keep-random"}); err == nil {
		t.Fatal("unknown policy must be an RPC error")
	}
}

func TestHistoryOverIPC(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, _ := startServer(t, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, rec := range []store.OrganizedRecord{
		{EventID: "e1", OriginalPath: "/w/a.pdf", DestinationPath: "/l/Documents/a.pdf", Category: "Documents", Size: 1},
		{EventID: "e2", OriginalPath: "/w/b.jpg", DestinationPath: "/l/Images/b.jpg", Category: "Images", Size: 2},
	} {
		rec.OrganizedAt = base.Add(time.Duration(i) * time.Hour)
		if _, err := st.AppendOrganized(context.Background(), rec); err != nil {
			t.Fatalf("AppendOrganized failed: %v", err)
		}
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close seed store: %v", err)
	}

	resp, err := client.History(ipc.HistoryRequest{Category: "Images"})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(resp.Records) != 1 || resp.Records[0].EventID != "e2" {
		t.Fatalf("unexpected records: %+v", resp.Records)
	}

	if _, err := client.History(ipc.HistoryRequest{Since: "yesterday"}); err == nil {
		t.Fatal("malformed since must be an RPC error")
	}
}

func TestLogTailOverIPC(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, d := startServer(t, cfg)

	if err := os.MkdirAll(filepath.Dir(d.LogPath()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(d.LogPath(), []byte("line one\nline two\nline three\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Lines: 2})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[1] != "line three" {
		t.Fatalf("unexpected lines: %v", resp.Lines)
	}

	next, err := client.LogTail(ipc.LogTailRequest{Offset: resp.Offset})
	if err != nil {
		t.Fatalf("LogTail failed: %v", err)
	}
	if len(next.Lines) != 0 {
		t.Fatalf("no new lines expected, got %v", next.Lines)
	}
}

func TestRescanOverIPC(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, _ := startServer(t, cfg)

	dir := filepath.Join(cfg.Paths.LibraryDir, "Documents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("content"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	resp, err := client.Rescan()
	if err != nil {
		t.Fatalf("Rescan failed: %v", err)
	}
	if resp.Indexed != 1 {
		t.Fatalf("indexed = %d, want 1", resp.Indexed)
	}
}

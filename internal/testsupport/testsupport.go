// Package testsupport provides per-test configuration and store builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"tidy/internal/config"
	"tidy/internal/store"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WatchDir = filepath.Join(base, "watch")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.SocketPath = filepath.Join(base, "tidyd.sock")
	cfg.Watch.DebounceMs = 50
	cfg.Watch.RetryDelayMs = 10

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRoutes overrides the routing table on the test config.
func WithRoutes(table map[string][]string, fallback string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Routes.Table = table
		if fallback != "" {
			cfg.Routes.Fallback = fallback
		}
	}
}

// WithDebounce overrides the debounce window on the test config.
func WithDebounce(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watch.DebounceMs = ms
	}
}

// MustOpenStore opens the test database and closes it on cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

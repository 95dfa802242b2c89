package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	WatchDir   string `toml:"watch_dir"`
	LibraryDir string `toml:"library_dir"`
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Routes contains the extension routing table.
type Routes struct {
	// Table maps category name to the extensions it claims. Extensions are
	// case-insensitive; a leading dot is stripped during normalization.
	Table map[string][]string `toml:"table"`
	// Fallback is the category for extensions no entry claims.
	Fallback string `toml:"fallback"`
}

// Ignore contains filename and extension sets the watcher drops silently.
type Ignore struct {
	Names      []string `toml:"names"`
	Extensions []string `toml:"extensions"`
}

// Watch contains event intake and processing settings.
type Watch struct {
	// DebounceMs is the quiet window after the last modify event before a
	// path is considered settled.
	DebounceMs int `toml:"debounce_ms"`
	// MoveRetries is the attempt count for transient move failures.
	MoveRetries int `toml:"move_retries"`
	// RetryDelayMs is the initial backoff between move attempts.
	RetryDelayMs int `toml:"retry_delay_ms"`
	// LockHoldSeconds caps how long a single path or destination lock may
	// be held before a wedged operation forfeits it.
	LockHoldSeconds int `toml:"lock_hold_seconds"`
}

// Maintenance contains hash database sweep settings.
type Maintenance struct {
	SweepIntervalMinutes int  `toml:"sweep_interval_minutes"`
	SweepOnStartup       bool `toml:"sweep_on_startup"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tidy.
//
// Configuration sections by subsystem:
//   - Paths: watched root, library root, state directories, IPC socket
//   - Routes: category routing table and fallback category
//   - Ignore: names and extensions dropped before processing
//   - Watch: debounce window, move retry policy, lock hold cap
//   - Maintenance: hash database sweep cadence
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Routes      Routes      `toml:"routes"`
	Ignore      Ignore      `toml:"ignore"`
	Watch       Watch       `toml:"watch"`
	Maintenance Maintenance `toml:"maintenance"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tidy/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tidy.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// the destination storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// DatabasePath returns the location of the hash/organize database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "tidy.db")
}

// DebounceWindow returns the configured debounce duration.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// MoveRetryDelay returns the initial backoff between move attempts.
func (c *Config) MoveRetryDelay() time.Duration {
	return time.Duration(c.Watch.RetryDelayMs) * time.Millisecond
}

// LockHold returns the maximum hold duration for per-path and
// per-destination locks.
func (c *Config) LockHold() time.Duration {
	return time.Duration(c.Watch.LockHoldSeconds) * time.Second
}

// SweepInterval returns the maintenance sweep cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Maintenance.SweepIntervalMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRoutes()
	c.normalizeIgnore()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return fmt.Errorf("paths.watch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		// Organize in place: category folders live under the watched root.
		c.Paths.LibraryDir = c.Paths.WatchDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRoutes() {
	if strings.TrimSpace(c.Routes.Fallback) == "" {
		c.Routes.Fallback = defaultFallback
	}
	normalized := make(map[string][]string, len(c.Routes.Table))
	for category, extensions := range c.Routes.Table {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		cleaned := make([]string, 0, len(extensions))
		for _, ext := range extensions {
			if normalizedExt := NormalizeExtension(ext); normalizedExt != "" {
				cleaned = append(cleaned, normalizedExt)
			}
		}
		if len(cleaned) > 0 {
			normalized[category] = cleaned
		}
	}
	c.Routes.Table = normalized
}

func (c *Config) normalizeIgnore() {
	names := make([]string, 0, len(c.Ignore.Names))
	for _, name := range c.Ignore.Names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	c.Ignore.Names = names

	extensions := make([]string, 0, len(c.Ignore.Extensions))
	for _, ext := range c.Ignore.Extensions {
		if normalizedExt := NormalizeExtension(ext); normalizedExt != "" {
			extensions = append(extensions, normalizedExt)
		}
	}
	c.Ignore.Extensions = extensions
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizeExtension lower-cases an extension and strips the leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	return strings.TrimPrefix(ext, ".")
}

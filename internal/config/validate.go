package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRoutes(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WatchDir) == "" {
		return errors.New("paths.watch_dir is required")
	}
	return nil
}

func (c *Config) validateRoutes() error {
	seen := make(map[string]string)
	for category, extensions := range c.Routes.Table {
		for _, ext := range extensions {
			if owner, ok := seen[ext]; ok && owner != category {
				return fmt.Errorf("routes.table: extension %q claimed by both %q and %q", ext, owner, category)
			}
			seen[ext] = category
		}
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.DebounceMs < 0 {
		return errors.New("watch.debounce_ms must not be negative")
	}
	if c.Watch.MoveRetries < 1 {
		return errors.New("watch.move_retries must be at least 1")
	}
	if c.Watch.RetryDelayMs < 0 {
		return errors.New("watch.retry_delay_ms must not be negative")
	}
	if c.Watch.LockHoldSeconds < 1 {
		return errors.New("watch.lock_hold_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	if c.Maintenance.SweepIntervalMinutes < 1 {
		return errors.New("maintenance.sweep_interval_minutes must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

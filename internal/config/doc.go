// Package config loads, normalizes, and validates the TOML configuration
// shared by the tidy daemon and CLI.
package config

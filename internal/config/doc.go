// Package config loads, defaults, normalizes, and validates the TOML
// configuration shared by the greenhouse CLI and daemon.
package config

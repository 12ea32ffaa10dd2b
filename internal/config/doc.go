// Package config loads, normalizes, and validates Bookreel's TOML
// configuration. Defaults live in defaults.go; Load applies the file on top of
// Default(), then normalize() expands paths and fills env-var fallbacks, and
// Validate() rejects unusable values.
package config

// Package config loads, normalizes, and validates dropzone configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the DROPZONE_DATA_DIR environment
// fallback. The Config type centralizes every knob the daemon and CLI need:
// where the persistent store lives, which backend it uses, how aggressively it
// auto-saves, and which UI element is the drop target.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

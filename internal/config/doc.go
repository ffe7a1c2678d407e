// Package config loads, normalizes, and validates figfinder configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FIGFINDER_CACHE_DIR. The Config type centralizes every knob the CLI needs so
// cache locations, provider settings, and analysis defaults are discovered in
// one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical policy names, and clear validation errors.
package config

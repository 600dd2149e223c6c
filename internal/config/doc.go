// Package config loads, normalizes, and validates reelcache configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the TMDB_API_KEY environment
// fallback. The Config type centralizes catalog access, store selection,
// matching thresholds, and the refresh policy so the CLI can discover every
// setting in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

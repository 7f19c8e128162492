// Package config loads, normalizes, and validates prepcoach configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as PREPCOACH_API_URL and PREPCOACH_TOKEN. The Config type
// centralizes every knob the CLI and the voice turn controller need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

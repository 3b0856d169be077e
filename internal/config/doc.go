// Package config loads, normalizes, and validates servicedesk configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a sibling .env file, and honours
// environment fallbacks for object storage credentials. The Config type
// centralizes every knob the CLI and repair service need so the cargo
// database, log directory, and photo storage are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

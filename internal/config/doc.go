// Package config loads, normalizes, and validates filmdex configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and OMDB_API_KEY. The Config type centralizes every knob the
// enrichment run needs: provider credentials, active enrichers, the field
// update policy, pagination and quota limits, and inter-call delays.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical values, and clear validation errors.
package config

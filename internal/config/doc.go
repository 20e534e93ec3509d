// Package config loads, normalizes, and validates the TOML configuration for
// the extraction pipeline. Defaults come from Default(); Load applies the
// config file on top and then normalizes paths and fills missing values, so
// downstream packages can rely on every field being usable.
package config

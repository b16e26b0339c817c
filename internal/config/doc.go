// Package config loads, validates, and normalizes the tapline configuration.
//
// Configuration lives in a TOML file (default ~/.config/tapline/config.toml,
// falling back to ./tapline.toml). Load returns a fully expanded Config with
// defaults applied; path fields are absolute after normalization.
package config

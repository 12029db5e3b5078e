// Package config loads, validates, and normalizes subweave configuration.
//
// Configuration comes from a TOML file (default ~/.config/subweave/config.toml,
// falling back to ./subweave.toml); every value has a usable default so a
// missing file is not an error.
package config

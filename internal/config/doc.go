// Package config loads, validates, and defaults the subfix configuration
// file. Configuration lives in a single TOML document; a missing file is
// not an error and yields built-in defaults.
package config

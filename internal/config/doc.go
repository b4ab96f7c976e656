// Package config loads and validates the flowboard configuration file. The
// TOML file is optional; defaults keep the tool usable with no configuration
// at all. All path fields are expanded and absolute after Load.
package config

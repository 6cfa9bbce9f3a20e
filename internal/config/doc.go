// Package config loads skellyview.json and applies SKELLYVIEW_* environment
// overrides on top of it.
//
// Precedence, lowest first: built-in defaults, the JSON file, environment
// variables. Command-line flags are applied by the caller afterwards.
package config

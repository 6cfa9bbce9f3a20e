// Package errors provides structured errors for the skellyview command and
// its configuration layer.
//
// Each error carries a code from a fixed registry, a category, a short
// message and an optional suggestion:
//
//	err := errors.New("E102").
//	    WithDetail("fps must be greater than zero").
//	    WithSuggestion(`set "fps": 30 in skellyview.json`)
//
// Errors print as "E102: Invalid configuration value" and Format renders
// the full report for a terminal.
//
// The store and reactive packages never return errors; everything in this
// package concerns the process around them.
package errors

//go:build nolog
// +build nolog

package build

// LoggingType disables every subsystem logger.
const LoggingType = LogTypeNone

//go:build !stdlog && !nolog
// +build !stdlog,!nolog

package build

// LoggingType routes subsystem loggers through the root logger manager.
const LoggingType = LogTypeDefault

//go:build stdlog
// +build stdlog

package build

// LoggingType makes every subsystem logger print straight to stdout, which
// is what unit tests built with the stdlog tag want.
const LoggingType = LogTypeStdOut

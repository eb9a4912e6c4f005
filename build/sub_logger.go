package build

import (
	"sort"
	"sync"

	"github.com/btcsuite/btclog/v2"
)

// SubLoggerManager hands out subsystem loggers that all share one handler and
// keeps track of them so that their levels can be changed at runtime.
type SubLoggerManager struct {
	handler btclog.Handler
	level   string

	loggers SubLoggers
	mu      sync.Mutex
}

// A compile time check to ensure SubLoggerManager implements the
// LeveledSubLogger interface.
var _ LeveledSubLogger = (*SubLoggerManager)(nil)

// NewSubLoggerManager constructs a new SubLoggerManager writing through the
// given handler.
func NewSubLoggerManager(handler btclog.Handler) *SubLoggerManager {
	return &SubLoggerManager{
		handler: handler,
		level:   LogLevel,
		loggers: make(SubLoggers),
	}
}

// GenSubLogger creates a new sub-logger for the given subsystem and registers
// it with the manager.
func (r *SubLoggerManager) GenSubLogger(subsystem string) btclog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()

	if logger, ok := r.loggers[subsystem]; ok {
		return logger
	}

	logger := btclog.NewSLogger(r.handler.SubSystem(subsystem))
	if level, ok := btclog.LevelFromString(r.level); ok {
		logger.SetLevel(level)
	}
	r.loggers[subsystem] = logger

	return logger
}

// SubLoggers returns all currently registered subsystem loggers for this log
// writer.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (r *SubLoggerManager) SubLoggers() SubLoggers {
	r.mu.Lock()
	defer r.mu.Unlock()

	loggers := make(SubLoggers, len(r.loggers))
	for k, v := range r.loggers {
		loggers[k] = v
	}

	return loggers
}

// SupportedSubsystems returns a sorted string slice of all keys in the
// subsystems map, corresponding to the names of the subsystems.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (r *SubLoggerManager) SupportedSubsystems() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	subsystems := make([]string, 0, len(r.loggers))
	for subsysID := range r.loggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)

	return subsystems
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored. Uninitialized subsystems are dynamically created as
// needed.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (r *SubLoggerManager) SetLogLevel(subsystemID string, logLevel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger, ok := r.loggers[subsystemID]
	if !ok {
		return
	}

	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level. It also dynamically creates the subsystem loggers as needed, so it
// can be used to initialize the logging system.
//
// NOTE: This is part of the LeveledSubLogger interface.
func (r *SubLoggerManager) SetLogLevels(logLevel string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.level = logLevel
	level, _ := btclog.LevelFromString(logLevel)
	for _, logger := range r.loggers {
		logger.SetLevel(level)
	}
}

package nip76

import (
	"fmt"
	"io"
	"os"

	"github.com/animiq/nip76/build"
	"github.com/animiq/nip76/content"
	"github.com/animiq/nip76/docindex"
	"github.com/animiq/nip76/hdkey"
	"github.com/animiq/nip76/kvstore"
	"github.com/animiq/nip76/monitoring"
	"github.com/animiq/nip76/pointer"
	"github.com/animiq/nip76/wallet"
	"github.com/btcsuite/btclog/v2"
)

// Subsystem is the logging code of the root package.
const Subsystem = "NP76"

// log is the root package logger. It stays disabled until SetupLoggers is
// called.
var log = btclog.Disabled

// SetupLoggers initializes the sub loggers of every package with the root
// logger manager.
func SetupLoggers(root *build.SubLoggerManager) {
	AddSubLogger(root, Subsystem, func(l btclog.Logger) { log = l })

	AddSubLogger(root, hdkey.Subsystem, hdkey.UseLogger)
	AddSubLogger(root, docindex.Subsystem, docindex.UseLogger)
	AddSubLogger(root, pointer.Subsystem, pointer.UseLogger)
	AddSubLogger(root, content.Subsystem, content.UseLogger)
	AddSubLogger(root, wallet.Subsystem, wallet.UseLogger)
	AddSubLogger(root, kvstore.Subsystem, kvstore.UseLogger)
	AddSubLogger(root, monitoring.Subsystem, monitoring.UseLogger)
}

// AddSubLogger is a helper method to conveniently create and register the
// logger of one or more sub systems.
func AddSubLogger(root *build.SubLoggerManager, subsystem string,
	useLoggers ...func(btclog.Logger)) {

	logger := build.NewSubLogger(subsystem, root.GenSubLogger)
	for _, useLogger := range useLoggers {
		useLogger(logger)
	}
}

// LogManager owns the handler every subsystem logger writes through.
type LogManager struct {
	*build.SubLoggerManager

	rotator *build.RotatingLogWriter
}

// NewLogManager builds the logger manager described by cfg, wires every
// subsystem into it and applies the debug level. When logFile is not empty
// the output is also written to a rotating log file.
func NewLogManager(cfg *Config, stdout io.Writer) (*LogManager, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	m := &LogManager{rotator: build.NewRotatingLogWriter()}

	out := stdout
	if cfg.Logging.LogFile != "" {
		err := m.rotator.InitLogRotator(cfg.Logging, cfg.Logging.LogFile)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(stdout, m.rotator)
	}

	handler := btclog.NewDefaultHandler(
		out, cfg.Logging.HandlerOptions()...,
	)
	m.SubLoggerManager = build.NewSubLoggerManager(handler)
	SetupLoggers(m.SubLoggerManager)

	err := build.ParseAndSetDebugLevels(cfg.DebugLevel, m.SubLoggerManager)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("unable to set debug level: %w", err)
	}

	return m, nil
}

// Close stops the log rotator, if one was started.
func (m *LogManager) Close() error {
	return m.rotator.Close()
}

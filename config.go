package nip76

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/animiq/nip76/build"
	"github.com/animiq/nip76/docindex"
	"github.com/animiq/nip76/kvstore"
	"github.com/animiq/nip76/nipcfg"
	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultLogLevel    = "info"
	defaultLogDirname  = "logs"
	defaultLogFilename = "nip76.log"
)

var (
	// DefaultNip76Dir is the default directory holding the config file,
	// the database and the logs.
	DefaultNip76Dir = btcutil.AppDataDir("nip76", false)

	// DefaultConfigFile is the default full path of the config file.
	DefaultConfigFile = filepath.Join(
		DefaultNip76Dir, nipcfg.DefaultConfigFilename,
	)

	defaultDataDir = filepath.Join(DefaultNip76Dir, nipcfg.DefaultDataDirname)
	defaultLogDir  = filepath.Join(DefaultNip76Dir, defaultLogDirname)
)

// Config holds every option of a nip76 session.
//
//nolint:lll
type Config struct {
	Nip76Dir   string `long:"nip76dir" description:"The base directory that contains the database and log files."`
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file"`

	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`

	Logging *build.LogConfig `group:"logging" namespace:"logging"`

	Wallet *nipcfg.Wallet `group:"wallet" namespace:"wallet"`

	DB *nipcfg.DB `group:"db" namespace:"db"`

	Workers *nipcfg.Workers `group:"workers" namespace:"workers"`

	Prometheus nipcfg.Prometheus `group:"prometheus" namespace:"prometheus"`
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		Nip76Dir:   DefaultNip76Dir,
		ConfigFile: DefaultConfigFile,
		DebugLevel: defaultLogLevel,
		Logging:    build.DefaultLogConfig(),
		Wallet:     nipcfg.DefaultWallet(),
		DB:         nipcfg.DefaultDB(),
		Workers:    nipcfg.DefaultWorkers(),
		Prometheus: nipcfg.DefaultPrometheus(),
	}
}

// LoadConfig starts from the defaults and applies the options of the config
// file at path. A missing file leaves the defaults in place. The result is
// validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		cfg.ConfigFile = path
	}

	parser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(parser).ParseFile(
		nipcfg.CleanAndExpandPath(cfg.ConfigFile),
	)

	var pathErr *os.PathError
	switch {
	case errors.As(err, &pathErr):
		log.Debugf("No config file at %v, using defaults",
			cfg.ConfigFile)

	case err != nil:
		return nil, err
	}

	return ValidateConfig(cfg)
}

// ValidateConfig normalizes the paths of the config and checks every sub
// config. The cleaned up config is returned on success.
func ValidateConfig(cfg Config) (*Config, error) {
	nip76Dir := nipcfg.CleanAndExpandPath(cfg.Nip76Dir)
	if nip76Dir == "" {
		nip76Dir = DefaultNip76Dir
	}
	cfg.Nip76Dir = nip76Dir

	if cfg.DB == nil || cfg.Wallet == nil || cfg.Workers == nil ||
		cfg.Logging == nil {

		return nil, fmt.Errorf("incomplete config")
	}

	// Paths left empty follow the base directory.
	switch {
	case cfg.DB.Path != "":
		cfg.DB.Path = nipcfg.CleanAndExpandPath(cfg.DB.Path)

	case nip76Dir != DefaultNip76Dir:
		cfg.DB.Path = filepath.Join(nip76Dir, nipcfg.DefaultDataDirname)

	default:
		cfg.DB.Path = defaultDataDir
	}

	if cfg.Logging.LogFile != "" {
		cfg.Logging.LogFile = nipcfg.CleanAndExpandPath(
			cfg.Logging.LogFile,
		)
	}

	if cfg.DebugLevel == "" {
		cfg.DebugLevel = defaultLogLevel
	}

	err := nipcfg.Validate(cfg.Wallet, cfg.DB, cfg.Workers)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultLogFile returns the log file used when logging.logfile is empty.
func (c *Config) DefaultLogFile() string {
	if c.Nip76Dir == DefaultNip76Dir {
		return filepath.Join(defaultLogDir, defaultLogFilename)
	}

	return filepath.Join(c.Nip76Dir, defaultLogDirname, defaultLogFilename)
}

// IndexOptions returns the document index options the config implies.
func (c *Config) IndexOptions() []docindex.Option {
	return []docindex.Option{
		docindex.WithReadWorkers(c.Workers.Read),
	}
}

// OpenStore opens the storage backend selected by the config.
func (c *Config) OpenStore() (kvstore.Store, func() error, error) {
	if c.DB.IsMemory() {
		return kvstore.NewMemStore(), func() error { return nil }, nil
	}

	backend, err := c.DB.GetBackend()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open database: %w", err)
	}

	db, err := kvstore.NewDB(backend)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}

	log.Infof("Opened database in %v", c.DB.Path)

	return db, db.Close, nil
}

package nipcfg

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
)

const (
	// DefaultDBFilename is the name of the bolt file holding wallet
	// backups and sessions.
	DefaultDBFilename = "nip76.db"

	memBackend  = "memory"
	boltBackend = "bolt"
)

// DB holds the storage configuration.
type DB struct {
	Backend string `long:"backend" description:"The selected storage backend." choice:"bolt" choice:"memory"`

	Path string `long:"path" description:"Directory holding the bolt database file."`

	Bolt *kvdb.BoltConfig `group:"bolt" namespace:"bolt" description:"Bolt settings."`
}

// DefaultDB returns the default storage configuration.
func DefaultDB() *DB {
	return &DB{
		Backend: boltBackend,
		Bolt: &kvdb.BoltConfig{
			NoFreelistSync:    true,
			AutoCompactMinAge: kvdb.DefaultBoltAutoCompactMinAge,
			DBTimeout:         kvdb.DefaultDBTimeout,
		},
	}
}

// Validate checks the selected backend.
func (db *DB) Validate() error {
	switch db.Backend {
	case memBackend:

	case boltBackend:
		if db.Path == "" {
			return fmt.Errorf("db.path must be set for the bolt " +
				"backend")
		}
		if db.Bolt == nil || db.Bolt.DBTimeout < time.Second {
			return fmt.Errorf("db.bolt.dbtimeout must be at least " +
				"one second")
		}

	default:
		return fmt.Errorf("unknown backend, must be either %q or %q",
			boltBackend, memBackend)
	}

	return nil
}

// IsMemory reports whether the in-memory backend is selected.
func (db *DB) IsMemory() bool {
	return db.Backend == memBackend
}

// GetBackend opens the bolt database described by the config.
func (db *DB) GetBackend() (kvdb.Backend, error) {
	if db.IsMemory() {
		return nil, fmt.Errorf("the memory backend has no kvdb backend")
	}

	return kvdb.GetBoltBackend(&kvdb.BoltBackendConfig{
		DBPath:            CleanAndExpandPath(db.Path),
		DBFileName:        DefaultDBFilename,
		NoFreelistSync:    db.Bolt.NoFreelistSync,
		AutoCompact:       db.Bolt.AutoCompact,
		AutoCompactMinAge: db.Bolt.AutoCompactMinAge,
		DBTimeout:         db.Bolt.DBTimeout,
	})
}

// Compile-time constraint to ensure DB implements the Validator interface.
var _ Validator = (*DB)(nil)

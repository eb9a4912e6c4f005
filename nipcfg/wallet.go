package nipcfg

import (
	"fmt"
)

const (
	// DefaultPBKDF2Iterations is the number of PBKDF2-SHA512 rounds used to
	// stretch a backup secret.
	DefaultPBKDF2Iterations = 2145

	// DefaultVersion is the serialization profile of wallet master keys.
	DefaultVersion = "animiqAPI3"
)

// Wallet configures key derivation and backups.
type Wallet struct {
	Version string `long:"version" description:"Serialization profile of the master key." choice:"bitcoinMain" choice:"bitcoinTest" choice:"animiqAPI2" choice:"animiqAPI3" choice:"nip76API1"`

	PBKDF2Iterations int `long:"pbkdf2-iterations" description:"Number of PBKDF2-SHA512 rounds applied to backup secrets."`

	Relays []string `long:"relay" description:"Relay URL advertised in channel pointers. May be given multiple times."`
}

// DefaultWallet returns the default wallet configuration.
func DefaultWallet() *Wallet {
	return &Wallet{
		Version:          DefaultVersion,
		PBKDF2Iterations: DefaultPBKDF2Iterations,
	}
}

// Validate checks the iteration count.
func (w *Wallet) Validate() error {
	if w.PBKDF2Iterations < 1 {
		return fmt.Errorf("pbkdf2-iterations (%d) must be positive",
			w.PBKDF2Iterations)
	}
	if w.Version == "" {
		return fmt.Errorf("wallet version must be set")
	}

	return nil
}

// Compile-time constraint to ensure Wallet implements the Validator
// interface.
var _ Validator = (*Wallet)(nil)

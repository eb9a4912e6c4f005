package nipcfg

import "fmt"

// DefaultReadWorkers is the default number of events decrypted in parallel
// by a batch read.
const DefaultReadWorkers = 8

// Workers configures the worker pools.
type Workers struct {
	// Read is the maximum number of concurrent event read workers.
	Read int `long:"read" description:"Maximum number of events decrypted concurrently during a batch read."`
}

// DefaultWorkers returns the default worker configuration.
func DefaultWorkers() *Workers {
	return &Workers{
		Read: DefaultReadWorkers,
	}
}

// Validate asserts that every pool has at least one worker.
func (w *Workers) Validate() error {
	if w.Read <= 0 {
		return fmt.Errorf("number of read workers (%d) must be "+
			"positive", w.Read)
	}

	return nil
}

// Compile-time constraint to ensure Workers implements the Validator
// interface.
var _ Validator = (*Workers)(nil)

package nipcfg_test

import (
	"testing"
	"time"

	"github.com/animiq/nip76/nipcfg"
	"github.com/stretchr/testify/require"
)

const (
	maxUint = ^uint(0)
	maxInt  = int(maxUint >> 1)
)

// TestValidateWorkers asserts that validating the Workers config only succeeds
// if all fields specify a positive number of workers.
func TestValidateWorkers(t *testing.T) {
	tests := []struct {
		name  string
		cfg   *nipcfg.Workers
		valid bool
	}{
		{name: "min valid", cfg: &nipcfg.Workers{Read: 1}, valid: true},
		{name: "max valid", cfg: &nipcfg.Workers{Read: maxInt}, valid: true},
		{name: "zero invalid", cfg: &nipcfg.Workers{Read: 0}},
		{name: "negative invalid", cfg: &nipcfg.Workers{Read: -1}},
		{name: "default", cfg: nipcfg.DefaultWorkers(), valid: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			err := test.cfg.Validate()
			if test.valid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestValidateDB(t *testing.T) {
	db := nipcfg.DefaultDB()
	require.Error(t, db.Validate(), "bolt without a path")

	db.Path = t.TempDir()
	require.NoError(t, db.Validate())

	db.Bolt.DBTimeout = time.Millisecond
	require.Error(t, db.Validate())

	require.NoError(t, (&nipcfg.DB{Backend: "memory"}).Validate())
	require.Error(t, (&nipcfg.DB{Backend: "etcd"}).Validate())
}

func TestDBGetBackend(t *testing.T) {
	db := nipcfg.DefaultDB()
	db.Path = t.TempDir()

	backend, err := db.GetBackend()
	require.NoError(t, err)
	require.NoError(t, backend.Close())
}

func TestValidateWallet(t *testing.T) {
	require.NoError(t, nipcfg.DefaultWallet().Validate())
	require.Error(t, (&nipcfg.Wallet{Version: "animiqAPI3"}).Validate())
	require.Error(t, nipcfg.Validate(
		nipcfg.DefaultWallet(), &nipcfg.Workers{},
	))
}

func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("NIP76_TEST_DIR", "/tmp/nip76")
	require.Equal(t, "/tmp/nip76/data",
		nipcfg.CleanAndExpandPath("$NIP76_TEST_DIR//data/"))
	require.Empty(t, nipcfg.CleanAndExpandPath(""))
}

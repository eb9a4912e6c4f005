package nip76

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/animiq/nip76/nipcfg"
	"github.com/stretchr/testify/require"
)

const testConf = `
[Application Options]
debuglevel=debug,WLLT=trace

[wallet]
wallet.version=nip76API1
wallet.pbkdf2-iterations=10
wallet.relay=wss://relay.one
wallet.relay=wss://relay.two

[db]
db.backend=memory

[workers]
workers.read=3
`

func writeConf(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), nipcfg.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConf(t, testConf))
	require.NoError(t, err)

	require.Equal(t, "debug,WLLT=trace", cfg.DebugLevel)
	require.Equal(t, "nip76API1", cfg.Wallet.Version)
	require.Equal(t, 10, cfg.Wallet.PBKDF2Iterations)
	require.Equal(
		t, []string{"wss://relay.one", "wss://relay.two"},
		cfg.Wallet.Relays,
	)
	require.True(t, cfg.DB.IsMemory())
	require.Equal(t, 3, cfg.Workers.Read)
	require.Len(t, cfg.IndexOptions(), 1)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.conf"))
	require.NoError(t, err)

	def := DefaultConfig()
	require.Equal(t, def.Wallet, cfg.Wallet)
	require.Equal(t, def.Workers, cfg.Workers)
	require.Equal(t, defaultDataDir, cfg.DB.Path)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(writeConf(t, "[workers]\nworkers.read=0\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConf(t, "[db]\ndb.backend=etcd\n"))
	require.Error(t, err)

	_, err = LoadConfig(writeConf(t, "nosuchoption=1\n"))
	require.Error(t, err)
}

func TestValidateConfigPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Nip76Dir = dir
	cfg.DebugLevel = ""

	clean, err := ValidateConfig(cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, nipcfg.DefaultDataDirname),
		clean.DB.Path)
	require.Equal(t, defaultLogLevel, clean.DebugLevel)
	require.Equal(
		t, filepath.Join(dir, defaultLogDirname, defaultLogFilename),
		clean.DefaultLogFile(),
	)

	cfg = DefaultConfig()
	cfg.Workers = nil
	_, err = ValidateConfig(cfg)
	require.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tests := []struct {
		name    string
		backend string
	}{
		{name: "memory", backend: "memory"},
		{name: "bolt", backend: "bolt"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Nip76Dir = t.TempDir()
			cfg.DB.Backend = test.backend
			clean, err := ValidateConfig(cfg)
			require.NoError(t, err)

			store, closeStore, err := clean.OpenStore()
			require.NoError(t, err)

			require.NoError(t, store.Put(ctx, "k", []byte("v")))
			v, err := store.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, []byte("v"), v)

			require.NoError(t, closeStore())
		})
	}
}

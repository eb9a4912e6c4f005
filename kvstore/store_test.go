package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/stretchr/testify/require"
)

func newBoltStore(t *testing.T) *DB {
	t.Helper()

	backend, err := kvdb.Create(
		kvdb.BoltBackendName, filepath.Join(t.TempDir(), "kv.db"), true,
		kvdb.DefaultDBTimeout, false,
	)
	require.NoError(t, err)

	store, err := NewDB(backend)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestStores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store func(*testing.T) Store
	}{{
		name: "memory",
		store: func(*testing.T) Store {
			return NewMemStore()
		},
	}, {
		name: "bolt",
		store: func(t *testing.T) Store {
			return newBoltStore(t)
		},
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			s := test.store(t)

			_, err := s.Get(ctx, "backup")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "backup", []byte{1, 2, 3}))
			v, err := s.Get(ctx, "backup")
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, v)

			// The returned slice is a copy.
			v[0] = 9
			v, err = s.Get(ctx, "backup")
			require.NoError(t, err)
			require.Equal(t, []byte{1, 2, 3}, v)

			require.NoError(t, s.Put(ctx, "backup", []byte{4}))
			v, err = s.Get(ctx, "backup")
			require.NoError(t, err)
			require.Equal(t, []byte{4}, v)

			require.ErrorIs(t, s.Put(ctx, "", []byte{1}), ErrEmptyKey)

			require.NoError(t, s.Delete(ctx, "backup"))
			require.NoError(t, s.Delete(ctx, "backup"))
			_, err = s.Get(ctx, "backup")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

// TestDBReopen checks that values survive closing the bolt file.
func TestDBReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	backend, err := kvdb.Create(
		kvdb.BoltBackendName, path, true, kvdb.DefaultDBTimeout, false,
	)
	require.NoError(t, err)
	store, err := NewDB(backend)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "session", []byte("state")))
	require.NoError(t, store.Close())

	backend, err = kvdb.Open(
		kvdb.BoltBackendName, path, true, kvdb.DefaultDBTimeout, false,
	)
	require.NoError(t, err)
	store, err = NewDB(backend)
	require.NoError(t, err)
	defer store.Close()

	v, err := store.Get(ctx, "session")
	require.NoError(t, err)
	require.Equal(t, []byte("state"), v)
}

package hdkey

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestWordset(t require.TestingT) (*HDKey, Wordset) {
	root, err := ParseMasterSeed(testSeed, AnimiqAPI3)
	require.NoError(t, err)

	ws, err := NewWordset(root, "correct horse")
	require.NoError(t, err)

	return root, ws
}

func TestFoldDeterministic(t *testing.T) {
	t.Parallel()

	root, ws := newTestWordset(t)

	a, err := ws.Fold(root, 5, false)
	require.NoError(t, err)
	b, err := ws.Fold(root, 5, false)
	require.NoError(t, err)

	require.True(t, a.IsEqual(b))
	require.True(t, a.IsPrivate())
	require.Equal(t, root.Depth()+WordsetLen, a.Depth())
}

// TestFoldDistinct checks that distinct offsets, reversal and different
// wordsets all lead to distinct keys.
func TestFoldDistinct(t *testing.T) {
	t.Parallel()

	root, ws := newTestWordset(t)

	rapid.Check(t, func(t *rapid.T) {
		i := rapid.Uint32Range(0, 1<<20).Draw(t, "i")
		j := rapid.Uint32Range(0, 1<<20).Filter(func(j uint32) bool {
			return j != i
		}).Draw(t, "j")

		a, err := ws.Fold(root, i, false)
		require.NoError(t, err)
		b, err := ws.Fold(root, j, false)
		require.NoError(t, err)
		require.False(t, a.IsEqual(b))

		rev, err := ws.Fold(root, i, true)
		require.NoError(t, err)
		require.False(t, a.IsEqual(rev))
	})

	other, err := NewWordset(root, "battery staple")
	require.NoError(t, err)
	require.NotEqual(t, ws, other)

	a, err := ws.Fold(root, 0, false)
	require.NoError(t, err)
	b, err := other.Fold(root, 0, false)
	require.NoError(t, err)
	require.False(t, a.IsEqual(b))
}

func TestFoldRequiresPrivateRoot(t *testing.T) {
	t.Parallel()

	root, ws := newTestWordset(t)

	_, err := ws.Fold(root.Neuter(), 0, false)
	require.ErrorIs(t, err, ErrDeriveHardFromPublic)
}

// TestFoldLargeOffset exercises the wrap of word * (offset+1) past 2^32.
func TestFoldLargeOffset(t *testing.T) {
	t.Parallel()

	root, _ := newTestWordset(t)
	ws := Wordset{
		HardenedKeyStart - 1, 3, 5, 7, 11, 13, 17, 19,
	}

	k, err := ws.Fold(root, HardenedKeyStart-1, false)
	require.NoError(t, err)

	// (2^31-1) * 2^31 mod 2^31 == 0, so the first step is child 0'.
	first, err := root.DeriveChildKey(0, true)
	require.NoError(t, err)
	manual := first
	mult := uint64(HardenedKeyStart)
	for _, w := range ws[1:] {
		idx := uint32((uint64(w) * mult) % HardenedKeyStart)
		manual, err = manual.DeriveChildKey(idx, true)
		require.NoError(t, err)
	}
	require.True(t, k.IsEqual(manual))
}

func TestWordsetBytes(t *testing.T) {
	t.Parallel()

	_, ws := newTestWordset(t)

	parsed, err := WordsetFromBytes(ws.Bytes())
	require.NoError(t, err)
	require.Equal(t, ws, parsed)

	_, err = WordsetFromBytes(ws.Bytes()[:31])
	require.Error(t, err)

	require.False(t, ws.IsZero())
	ws.Zero()
	require.True(t, ws.IsZero())
}

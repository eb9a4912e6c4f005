package hdkey

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	testSeed, _ = hex.DecodeString("000102030405060708090a0b0c0d0e0f")

	testVersions = []*Version{
		BitcoinMain, BitcoinTest, AnimiqAPI2, AnimiqAPI3, Nip76API1,
	}
)

// TestBIP0032Vector1 checks the master node and its first hardened child
// against the published BIP32 test vector 1.
func TestBIP0032Vector1(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		priv string
		pub  string
	}{
		{
			name: "m",
			path: "m",
			priv: "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbP" +
				"y6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJ" +
				"gk33yuGBxrMPHi",
			pub: "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8N" +
				"qtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usU" +
				"DFdp6W1EGMcet8",
		},
		{
			name: "m/0H",
			path: "m/0'",
			priv: "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ng" +
				"LNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnY" +
				"eSvkzY7d2bhkJ7",
			pub: "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKf" +
				"DBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8P" +
				"X9rL2dZXvgGDnw",
		},
	}

	master, err := ParseMasterSeed(testSeed, BitcoinMain)
	require.NoError(t, err)

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			key, err := master.Derive(test.path)
			require.NoError(t, err)

			priv, err := key.ExtendedPrivateKey()
			require.NoError(t, err)
			require.Equal(t, test.priv, priv)

			pub, err := key.ExtendedPublicKey()
			require.NoError(t, err)
			require.Equal(t, test.pub, pub)

			parsed, err := ParseExtendedKey(test.priv)
			require.NoError(t, err)
			require.True(t, parsed.IsPrivate())
			require.Equal(t, key.Depth(), parsed.Depth())
			require.Equal(t, key.Index(), parsed.Index())
		})
	}
}

// TestMatchesHDKeychain cross checks a mixed path against btcutil's
// implementation.
func TestMatchesHDKeychain(t *testing.T) {
	t.Parallel()

	ours, err := ParseMasterSeed(testSeed, BitcoinMain)
	require.NoError(t, err)

	theirs, err := hdkeychain.NewMaster(testSeed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	path := []PathElement{
		{Index: 44, Hardened: true},
		{Index: 1237, Hardened: true},
		{Index: 3},
		{Index: 0},
		{Index: 7, Hardened: true},
	}
	for _, e := range path {
		ours, err = ours.DeriveChildKey(e.Index, e.Hardened)
		require.NoError(t, err)

		idx := e.Index
		if e.Hardened {
			idx += hdkeychain.HardenedKeyStart
		}
		theirs, err = theirs.Derive(idx)
		require.NoError(t, err)

		priv, err := ours.ExtendedPrivateKey()
		require.NoError(t, err)
		require.Equal(t, theirs.String(), priv)
	}
}

func TestExtendedKeyRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOfN(rapid.Byte(), 16, 64).Draw(t, "seed")
		v := rapid.SampledFrom(testVersions).Draw(t, "version")
		idx := rapid.Uint32Range(0, HardenedKeyStart-1).Draw(t, "idx")
		hardened := rapid.Bool().Draw(t, "hardened")

		master, err := ParseMasterSeed(seed, v)
		require.NoError(t, err)
		key, err := master.DeriveChildKey(idx, hardened)
		require.NoError(t, err)

		priv, err := key.ExtendedPrivateKey()
		require.NoError(t, err)
		parsed, err := ParseExtendedKey(priv)
		require.NoError(t, err)
		reserialized, err := parsed.ExtendedPrivateKey()
		require.NoError(t, err)
		require.Equal(t, priv, reserialized)
		require.Same(t, v, parsed.Version())

		pub, err := key.ExtendedPublicKey()
		require.NoError(t, err)
		parsedPub, err := ParseExtendedKey(pub)
		require.NoError(t, err)
		require.False(t, parsedPub.IsPrivate())
		reserializedPub, err := parsedPub.ExtendedPublicKey()
		require.NoError(t, err)
		require.Equal(t, pub, reserializedPub)
	})
}

func TestCompactSerializationLength(t *testing.T) {
	t.Parallel()

	for _, v := range testVersions {
		key, err := ParseMasterSeed(testSeed, v)
		require.NoError(t, err)

		pub, err := key.ExtendedPublicKey()
		require.NoError(t, err)

		want := serializedKeyLen + checksumLen
		if v.Compact {
			want = compactKeyLen + checksumLen
		}
		require.Len(t, base58.Decode(pub), want, v.Name)
	}
}

// TestPublicDerivationMatchesPrivate asserts that an unhardened child computed
// from the public-only parent equals the public half of the private child.
func TestPublicDerivationMatchesPrivate(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "seed")
		idx := rapid.Uint32Range(0, HardenedKeyStart-1).Draw(t, "idx")

		master, err := ParseMasterSeed(seed, AnimiqAPI3)
		require.NoError(t, err)

		privChild, err := master.DeriveChildKey(idx, false)
		require.NoError(t, err)

		pubChild, err := master.Neuter().DeriveChildKey(idx, false)
		require.NoError(t, err)

		require.False(t, pubChild.IsPrivate())
		require.Equal(t, privChild.PubKeyBytes(), pubChild.PubKeyBytes())
		require.Equal(t, privChild.ChainCode(), pubChild.ChainCode())
		require.Equal(t, privChild.Index(), pubChild.Index())
	})
}

func TestHardenedFromPublicFails(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, BitcoinMain)
	require.NoError(t, err)

	_, err = master.Neuter().DeriveChildKey(0, true)
	require.ErrorIs(t, err, ErrDeriveHardFromPublic)

	_, err = master.Neuter().Derive("m/1/2'")
	require.ErrorIs(t, err, ErrDeriveHardFromPublic)
}

func TestDeriveChildKeyErrors(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, BitcoinMain)
	require.NoError(t, err)

	_, err = master.DeriveChildKey(HardenedKeyStart, false)
	require.ErrorIs(t, err, ErrInvalidIndex)

	chainless := NewKeyFromPublic(master.PublicKey(), nil, BitcoinMain)
	_, err = chainless.DeriveChildKey(0, false)
	require.ErrorIs(t, err, ErrNoChainCode)
}

// TestChecksumMutation flips every byte of a serialized key and expects the
// checksum to catch it.
func TestChecksumMutation(t *testing.T) {
	t.Parallel()

	for _, v := range []*Version{BitcoinMain, AnimiqAPI3} {
		master, err := ParseMasterSeed(testSeed, v)
		require.NoError(t, err)

		priv, err := master.ExtendedPrivateKey()
		require.NoError(t, err)
		raw := base58.Decode(priv)

		for i := range raw {
			mutated := bytes.Clone(raw)
			mutated[i] ^= 0x01

			_, err := ParseExtendedKey(base58.Encode(mutated))
			require.ErrorIs(t, err, ErrBadChecksum, "byte %d", i)
		}
	}
}

func TestParseExtendedKeyErrors(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, BitcoinMain)
	require.NoError(t, err)
	pub, err := master.ExtendedPublicKey()
	require.NoError(t, err)
	raw := base58.Decode(pub)

	// Rewrite the prefix to the private one while keeping public key data.
	mismatched := bytes.Clone(raw[:len(raw)-checksumLen])
	copy(mismatched, []byte{0x04, 0x88, 0xad, 0xe4})

	unknown := bytes.Clone(raw[:len(raw)-checksumLen])
	copy(unknown, []byte{0xde, 0xad, 0xbe, 0xef})

	tests := []struct {
		name string
		key  string
		err  error
	}{{
		name: "truncated",
		key:  base58.Encode(raw[:40]),
		err:  ErrInvalidKeyLen,
	}, {
		name: "version mismatch",
		key:  withChecksum(mismatched),
		err:  ErrVersionMismatch,
	}, {
		name: "unknown version",
		key:  withChecksum(unknown),
		err:  ErrUnknownVersion,
	}}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseExtendedKey(test.key)
			require.ErrorIs(t, err, test.err)
		})
	}
}

func withChecksum(payload []byte) string {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])

	return base58.Encode(append(bytes.Clone(payload), second[:4]...))
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    []PathElement
		wantErr bool
	}{
		{path: "", want: nil},
		{path: "m", want: []PathElement{}},
		{path: "M'", want: []PathElement{}},
		{path: "m/44'/0'/1", want: []PathElement{
			{Index: 44, Hardened: true},
			{Index: 0, Hardened: true},
			{Index: 1},
		}},
		{path: "M/7H/2", want: []PathElement{
			{Index: 7, Hardened: true},
			{Index: 2},
		}},
		{path: "44'/0'", wantErr: true},
		{path: "m/abc", wantErr: true},
		{path: "m/2147483648", wantErr: true},
	}

	for _, test := range tests {
		got, err := ParsePath(test.path)
		if test.wantErr {
			require.ErrorIs(t, err, ErrInvalidPath, test.path)
			continue
		}
		require.NoError(t, err, test.path)
		require.Equal(t, test.want, got, test.path)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"m", "m/44'/0'/1", "m/0/2147483647'"} {
		elements, err := ParsePath(path)
		require.NoError(t, err, path)
		require.Equal(t, path, FormatPath(elements))
	}

	require.Equal(t, "m", FormatPath(nil))
	require.Equal(t, "m/7'/2", FormatPath([]PathElement{
		{Index: 7, Hardened: true}, {Index: 2},
	}))
}

func TestDeriveEmptyPathReturnsSelf(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, BitcoinMain)
	require.NoError(t, err)

	for _, p := range []string{"", "m", "M", "m'"} {
		k, err := master.Derive(p)
		require.NoError(t, err)
		require.Same(t, master, k)
	}
}

func TestSignVerify(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, AnimiqAPI3)
	require.NoError(t, err)

	hash := sha256.Sum256([]byte("nip76"))
	sig, err := master.Sign(hash[:])
	require.NoError(t, err)
	require.Len(t, sig, 64)

	ok, err := master.Neuter().Verify(hash[:], sig)
	require.NoError(t, err)
	require.True(t, ok)

	other := sha256.Sum256([]byte("other"))
	ok, err = master.Verify(other[:], sig)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = master.Sign(hash[:31])
	require.ErrorIs(t, err, ErrInvalidHashLen)

	_, err = master.Verify(hash[:], sig[:63])
	require.ErrorIs(t, err, ErrInvalidSigLen)

	_, err = master.Neuter().Sign(hash[:])
	require.ErrorIs(t, err, ErrNotPrivate)
}

func TestWipePrivateData(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, BitcoinMain)
	require.NoError(t, err)
	pub := master.PubKeyBytes()

	wiped := master.WipePrivateData()
	require.Same(t, master, wiped)
	require.False(t, wiped.IsPrivate())
	require.Equal(t, pub, wiped.PubKeyBytes())

	_, err = wiped.ExtendedPrivateKey()
	require.ErrorIs(t, err, ErrNotPrivate)

	_, err = wiped.DeriveChildKey(0, true)
	require.ErrorIs(t, err, ErrDeriveHardFromPublic)
}

func TestParseMasterSeedLength(t *testing.T) {
	t.Parallel()

	long := bytes.Repeat([]byte{0x76}, 66)

	tests := []struct {
		name string
		seed []byte
		err  error
	}{
		{name: "empty", seed: nil, err: ErrInvalidSeedLen},
		{name: "one byte", seed: []byte{1}},
		{name: "bip32", seed: testSeed},
		{name: "66 bytes", seed: long},
		{name: "oversized", seed: bytes.Repeat([]byte{0x01}, 256)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			k, err := ParseMasterSeed(test.seed, Nip76API1)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			require.True(t, k.IsPrivate())
		})
	}

	// Seeds are not truncated, so a longer seed gives another master.
	short, err := ParseMasterSeed(long[:64], Nip76API1)
	require.NoError(t, err)
	full, err := ParseMasterSeed(long, Nip76API1)
	require.NoError(t, err)
	require.False(t, short.IsEqual(full))
}

func TestParseKeyBytes(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, Nip76API1)
	require.NoError(t, err)
	scalar := master.PrivateKey().Key.Bytes()

	priv, err := ParsePrivateKeyBytes(
		scalar[:], master.ChainCode(), Nip76API1,
	)
	require.NoError(t, err)
	require.True(t, priv.IsPrivate())
	require.Equal(t, master.PubKeyBytes(), priv.PubKeyBytes())
	require.Equal(t, master.ChainCode(), priv.ChainCode())
	require.NotSame(t, master.PrivateKey(), priv.PrivateKey())

	// Wiping the parsed node leaves the source scalar alone.
	priv.WipePrivateData()
	require.Equal(t, scalar, master.PrivateKey().Key.Bytes())

	pub, err := ParsePublicKeyBytes(master.PubKeyBytes(), nil, Nip76API1)
	require.NoError(t, err)
	require.False(t, pub.IsPrivate())
	require.False(t, pub.HasChainCode())
	require.Equal(t, master.PubKeyBytes(), pub.PubKeyBytes())

	order := hexToBytes(t,
		"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")

	tests := []struct {
		name string
		priv []byte
	}{
		{name: "short", priv: scalar[:31]},
		{name: "zero", priv: make([]byte, 32)},
		{name: "curve order", priv: order},
	}
	for _, test := range tests {
		_, err := ParsePrivateKeyBytes(test.priv, nil, Nip76API1)
		require.Error(t, err, test.name)
	}

	_, err = ParsePublicKeyBytes(scalar[:], nil, Nip76API1)
	require.Error(t, err)
}

func TestDeriveNewMasterKey(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, AnimiqAPI3)
	require.NoError(t, err)

	fromPriv, err := master.DeriveNewMasterKey()
	require.NoError(t, err)
	fromPub, err := master.Neuter().DeriveNewMasterKey()
	require.NoError(t, err)

	require.True(t, fromPriv.IsPrivate())
	require.True(t, fromPriv.IsEqual(fromPub))
	require.False(t, fromPriv.IsEqual(master))
	require.Zero(t, fromPriv.Depth())
}

func TestCreateIndexesFromWord(t *testing.T) {
	t.Parallel()

	master, err := ParseMasterSeed(testSeed, AnimiqAPI3)
	require.NoError(t, err)

	a, err := master.CreateIndexesFromWord("lockword", 16)
	require.NoError(t, err)
	require.Len(t, a, 20)

	b, err := master.CreateIndexesFromWord("lockword", 16)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := master.CreateIndexesFromWord("another", 16)
	require.NoError(t, err)
	require.NotEqual(t, a, c)

	for _, n := range a {
		require.Less(t, n, uint32(HardenedKeyStart))
	}

	// A shorter length leaves the middle entries unset but keeps the
	// trailing hash entries.
	short, err := master.CreateIndexesFromWord("lockword", 4)
	require.NoError(t, err)
	require.Equal(t, a[:4], short[:4])
	require.Zero(t, short[4])
	require.Equal(t, a[16:], short[16:])

	_, err = master.Neuter().CreateIndexesFromWord("lockword", 16)
	require.ErrorIs(t, err, ErrNotPrivate)
}

func TestECDH(t *testing.T) {
	t.Parallel()

	a, err := ParseMasterSeed(testSeed, AnimiqAPI3)
	require.NoError(t, err)
	b, err := a.DeriveChildKey(1, true)
	require.NoError(t, err)

	ab, err := a.ECDH(b.PublicKey())
	require.NoError(t, err)
	ba, err := b.ECDH(a.PublicKey())
	require.NoError(t, err)

	require.Len(t, ab, 32)
	require.Equal(t, ab, ba)
}

func hexToBytes(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

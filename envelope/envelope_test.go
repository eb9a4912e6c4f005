package envelope

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testKey = bytes.Repeat([]byte{0x42}, KeySize)

// TestEncryptDecryptPayload tests that given a static key, we're able to
// properly decrypt an encrypted payload, and that a modified ciphertext is
// rejected.
func TestEncryptDecryptPayload(t *testing.T) {
	t.Parallel()

	payloadCases := []struct {
		name string

		// mutator allows a test case to modify the ciphertext before
		// we attempt to decrypt it.
		mutator func(*[]byte)

		valid bool
	}{{
		name:  "proper payload",
		valid: true,
	}, {
		name: "flipped byte",
		mutator: func(p *[]byte) {
			(*p)[0] ^= 1
		},
	}, {
		name: "flipped tag",
		mutator: func(p *[]byte) {
			(*p)[len(*p)-1] ^= 1
		},
	}, {
		name: "zero length",
		mutator: func(p *[]byte) {
			*p = []byte{}
		},
	}}

	for _, payloadCase := range payloadCases {
		payloadCase := payloadCase
		t.Run(payloadCase.name, func(t *testing.T) {
			t.Parallel()

			var cipherBuffer bytes.Buffer
			plaintext := []byte("payload test plain text")

			err := EncryptPayloadToWriter(
				bytes.NewReader(plaintext), &cipherBuffer,
				testKey,
			)
			require.NoError(t, err)

			cipherText := cipherBuffer.Bytes()
			require.Len(t, cipherText, len(plaintext)+Overhead)
			if payloadCase.mutator != nil {
				payloadCase.mutator(&cipherText)
			}

			got, err := DecryptPayloadFromReader(
				bytes.NewReader(cipherText), testKey,
			)
			if !payloadCase.valid {
				var decErr *DecryptionError
				require.True(t, errors.As(err, &decErr))
				return
			}

			require.NoError(t, err)
			require.Equal(t, plaintext, got)
		})
	}
}

func TestInvalidKeySize(t *testing.T) {
	t.Parallel()

	_, err := New(testKey[:31])
	require.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestWrongKey(t *testing.T) {
	t.Parallel()

	c, err := New(testKey)
	require.NoError(t, err)
	sealed, err := c.SealString([]byte("secret"))
	require.NoError(t, err)

	other, err := New(bytes.Repeat([]byte{0x43}, KeySize))
	require.NoError(t, err)
	_, err = other.OpenString(sealed)

	var decErr *DecryptionError
	require.ErrorAs(t, err, &decErr)
}

func TestSealedLayout(t *testing.T) {
	t.Parallel()

	iv := bytes.Repeat([]byte{0x07}, IVSize)
	c, err := New(testKey, WithRand(bytes.NewReader(iv)))
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, iv, sealed[:IVSize])
}

func TestOpenTagFirst(t *testing.T) {
	t.Parallel()

	c, err := New(testKey)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		msg := rapid.SliceOf(rapid.Byte()).Draw(t, "msg")

		sealed, err := c.Seal(msg)
		require.NoError(t, err)

		// Rearrange iv || ct || tag into tag || iv || ct.
		iv := sealed[:IVSize]
		ct := sealed[IVSize : len(sealed)-TagSize]
		tag := sealed[len(sealed)-TagSize:]
		legacy := append(append(bytes.Clone(tag), iv...), ct...)

		got, err := c.OpenTagFirst(legacy)
		require.NoError(t, err)
		require.Equal(t, len(msg), len(got))
		require.True(t, bytes.Equal(msg, got))
	})
}

package hdkey

import (
	"encoding/binary"
	"fmt"
)

// WordsetLen is the number of words in a Wordset.
const WordsetLen = 8

// Wordset is a secret permutation used to fold a chain of hardened
// derivations. Only holders of the wordset can compute the folded keys.
type Wordset [WordsetLen]uint32

// NewWordset derives a wordset from the lockword using key's private scalar.
func NewWordset(key *HDKey, lockword string) (Wordset, error) {
	var ws Wordset
	nums, err := key.CreateIndexesFromWord(lockword, WordsetLen)
	if err != nil {
		return ws, err
	}
	copy(ws[:], nums[:WordsetLen])

	return ws, nil
}

// WordsetFromBytes reads a wordset written by Bytes.
func WordsetFromBytes(b []byte) (Wordset, error) {
	var ws Wordset
	if len(b) != WordsetLen*4 {
		return ws, fmt.Errorf("wordset must be %d bytes, got %d",
			WordsetLen*4, len(b))
	}
	for i := range ws {
		ws[i] = binary.BigEndian.Uint32(b[i*4:])
	}

	return ws, nil
}

// Bytes returns the big endian encoding of the words.
func (w *Wordset) Bytes() []byte {
	b := make([]byte, 0, WordsetLen*4)
	for _, word := range w {
		b = binary.BigEndian.AppendUint32(b, word)
	}

	return b
}

// IsZero reports whether every word is zero.
func (w *Wordset) IsZero() bool {
	return *w == Wordset{}
}

// Zero overwrites the words.
func (w *Wordset) Zero() {
	*w = Wordset{}
}

// Fold derives a hardened child of root for every word, in reverse order if
// requested. Each step uses index (word * (offset+1)) mod 2^31. The root must
// hold a private scalar.
func (w *Wordset) Fold(root *HDKey, offset uint32, reverse bool) (*HDKey,
	error) {

	acc := root
	mult := uint64(offset) + 1
	for i := 0; i < WordsetLen; i++ {
		word := w[i]
		if reverse {
			word = w[WordsetLen-1-i]
		}

		idx := uint32((uint64(word) * mult) % HardenedKeyStart)

		var err error
		acc, err = acc.DeriveChildKey(idx, true)
		if err != nil {
			return nil, err
		}
	}

	return acc, nil
}

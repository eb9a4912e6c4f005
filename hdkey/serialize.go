package hdkey

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// serializedKeyLen is the length of a standard serialized key without
	// its checksum.
	//   version (4) || depth (1) || parent fingerprint (4)) ||
	//   child num (4) || chain code (32) || key data (33)
	serializedKeyLen = 4 + 1 + 4 + 4 + 32 + 33

	// compactKeyLen is the length of a compact serialized key without its
	// checksum.
	//   version (4) || chain code (32) || key data (33)
	compactKeyLen = 4 + 32 + 33

	checksumLen = 4
)

// ExtendedPrivateKey returns the base58check serialization of the private
// node.
func (k *HDKey) ExtendedPrivateKey() (string, error) {
	if !k.IsPrivate() {
		return "", ErrNotPrivate
	}

	scalar := k.privKey.Key.Bytes()
	keyData := make([]byte, 0, 33)
	keyData = append(keyData, 0x00)
	keyData = append(keyData, scalar[:]...)

	return k.serialize(k.version.Private, keyData), nil
}

// ExtendedPublicKey returns the base58check serialization of the public node.
func (k *HDKey) ExtendedPublicKey() (string, error) {
	return k.serialize(k.version.Public, k.pubKey.SerializeCompressed()), nil
}

func (k *HDKey) serialize(prefix uint32, keyData []byte) string {
	size := serializedKeyLen
	if k.version.Compact {
		size = compactKeyLen
	}

	buf := make([]byte, 0, size+checksumLen)
	buf = binary.BigEndian.AppendUint32(buf, prefix)
	if !k.version.Compact {
		buf = append(buf, k.depth)
		if k.parentFP != nil {
			buf = append(buf, k.parentFP...)
		} else {
			buf = append(buf, 0, 0, 0, 0)
		}
		buf = binary.BigEndian.AppendUint32(buf, k.index)
	}

	// An absent chain code is written as zeroes.
	if k.chainCode != nil {
		buf = append(buf, k.chainCode...)
	} else {
		buf = append(buf, make([]byte, ChainCodeLen)...)
	}
	buf = append(buf, keyData...)

	checkSum := chainhash.DoubleHashB(buf)[:checksumLen]
	buf = append(buf, checkSum...)

	return base58.Encode(buf)
}

// ParseExtendedKey parses a base58check serialized key. The profile is
// selected by the decoded length and the version prefix, and the prefix must
// agree with the kind of key data that follows.
func ParseExtendedKey(key string) (*HDKey, error) {
	decoded := base58.Decode(key)

	var compact bool
	switch len(decoded) {
	case serializedKeyLen + checksumLen:
	case compactKeyLen + checksumLen:
		compact = true
	default:
		return nil, ErrInvalidKeyLen
	}

	payload := decoded[:len(decoded)-checksumLen]
	checkSum := decoded[len(decoded)-checksumLen:]
	expected := chainhash.DoubleHashB(payload)[:checksumLen]
	if !bytes.Equal(checkSum, expected) {
		return nil, ErrBadChecksum
	}

	prefix := binary.BigEndian.Uint32(payload[:4])
	version, isPrivPrefix, err := lookupVersion(prefix, compact)
	if err != nil {
		return nil, err
	}

	k := &HDKey{version: version}
	rest := payload[4:]
	if !compact {
		k.depth = rest[0]
		if fp := rest[1:5]; binary.BigEndian.Uint32(fp) != 0 {
			k.parentFP = append([]byte(nil), fp...)
		}
		k.index = binary.BigEndian.Uint32(rest[5:9])
		rest = rest[9:]

		if k.depth == 0 && (k.parentFP != nil || k.index != 0) {
			return nil, ErrMalformedMaster
		}
	}

	chainCode := rest[:ChainCodeLen]
	if !bytes.Equal(chainCode, make([]byte, ChainCodeLen)) {
		k.chainCode = append([]byte(nil), chainCode...)
	}
	keyData := rest[ChainCodeLen:]

	isPrivData := keyData[0] == 0x00
	if isPrivData != isPrivPrefix {
		return nil, ErrVersionMismatch
	}

	if isPrivData {
		var s btcec.ModNScalar
		overflow := s.SetByteSlice(keyData[1:])
		if overflow || s.IsZero() {
			return nil, ErrUnusableSeed
		}
		k.privKey, k.pubKey = btcec.PrivKeyFromBytes(keyData[1:])

		return k, nil
	}

	k.pubKey, err = btcec.ParsePubKey(keyData)
	if err != nil {
		return nil, err
	}

	return k, nil
}

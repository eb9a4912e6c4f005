package hdkey

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
)

const (
	// HardenedKeyStart is the index at which a hardened key starts. Each
	// extended key has 2^31 normal child keys and 2^31 hardened child
	// keys.
	HardenedKeyStart = 0x80000000 // 2^31

	// ChainCodeLen is the length of a chain code.
	ChainCodeLen = 32

	// maxDepth is the largest depth representable in the serialized
	// form.
	maxDepth = 255
)

// masterKey is the HMAC key used to compute the master node from a seed.
var masterKey = []byte("Bitcoin seed")

// HDKey is a node in a hierarchical deterministic key tree. A node either
// holds a private scalar, in which case the public point is derived from it,
// or only a public point.
//
// An HDKey is immutable apart from WipePrivateData.
type HDKey struct {
	privKey   *btcec.PrivateKey
	pubKey    *btcec.PublicKey
	chainCode []byte
	depth     uint8
	index     uint32
	parentFP  []byte
	version   *Version
}

// NewKeyFromPrivate returns a depth zero node for an existing private scalar.
// The chain code may be nil, in which case the node cannot derive children.
func NewKeyFromPrivate(priv *btcec.PrivateKey, chainCode []byte,
	v *Version) *HDKey {

	return &HDKey{
		privKey:   priv,
		pubKey:    priv.PubKey(),
		chainCode: copyChainCode(chainCode),
		version:   versionOrDefault(v),
	}
}

// NewKeyFromPublic returns a depth zero public-only node.
func NewKeyFromPublic(pub *btcec.PublicKey, chainCode []byte,
	v *Version) *HDKey {

	return &HDKey{
		pubKey:    pub,
		chainCode: copyChainCode(chainCode),
		version:   versionOrDefault(v),
	}
}

// ParsePublicKeyBytes parses a 33 byte compressed point into a public-only
// node.
func ParsePublicKeyBytes(pub, chainCode []byte, v *Version) (*HDKey, error) {
	pubKey, err := btcec.ParsePubKey(pub)
	if err != nil {
		return nil, err
	}

	return NewKeyFromPublic(pubKey, chainCode, v), nil
}

// ParsePrivateKeyBytes parses a 32 byte scalar into a private node.
func ParsePrivateKeyBytes(priv, chainCode []byte, v *Version) (*HDKey,
	error) {

	if len(priv) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key must be %d bytes, got %d",
			btcec.PrivKeyBytesLen, len(priv))
	}

	var k btcec.ModNScalar
	if overflow := k.SetByteSlice(priv); overflow || k.IsZero() {
		return nil, fmt.Errorf("private key is not a valid scalar")
	}
	privKey, _ := btcec.PrivKeyFromBytes(priv)

	return NewKeyFromPrivate(privKey, chainCode, v), nil
}

// ParseMasterSeed computes the master node for the seed using the given
// serialization profile.
func ParseMasterSeed(seed []byte, v *Version) (*HDKey, error) {
	// HMAC-SHA512 takes a seed of any length, only an empty one is
	// refused.
	if len(seed) == 0 {
		return nil, ErrInvalidSeedLen
	}

	// I = HMAC-SHA512(Key = "Bitcoin seed", Data = S)
	hmac512 := hmac.New(sha512.New, masterKey)
	_, _ = hmac512.Write(seed)
	lr := hmac512.Sum(nil)

	// Split "I" into two 32-byte sequences Il and Ir where:
	//   Il = master secret key
	//   Ir = master chain code
	secretKey := lr[:len(lr)/2]
	chainCode := lr[len(lr)/2:]

	var k btcec.ModNScalar
	if overflow := k.SetByteSlice(secretKey); overflow || k.IsZero() {
		return nil, ErrUnusableSeed
	}
	privKey, _ := btcec.PrivKeyFromBytes(secretKey)

	return NewKeyFromPrivate(privKey, chainCode, v), nil
}

// DeriveChildKey returns the child at index. When hardened is set the
// hardened offset is added to the index and the parent must hold a private
// scalar.
//
// An index whose derived material is unusable is skipped and the next index
// is tried instead, so the returned node may report a higher index than
// requested.
func (k *HDKey) DeriveChildKey(index uint32, hardened bool) (*HDKey, error) {
	if index >= HardenedKeyStart {
		return nil, ErrInvalidIndex
	}
	if hardened && !k.IsPrivate() {
		return nil, ErrDeriveHardFromPublic
	}
	if k.chainCode == nil {
		return nil, ErrNoChainCode
	}
	if k.depth == maxDepth {
		return nil, ErrDeriveBeyondMaxDepth
	}

	for i := index; i < HardenedKeyStart; i++ {
		child, err := k.deriveChild(i, hardened)
		if err == errInvalidChild {
			log.Debugf("Skipping unusable child index %d", i)
			continue
		}

		return child, err
	}

	return nil, ErrInvalidIndex
}

// deriveChild performs a single CKD step without the retry loop.
func (k *HDKey) deriveChild(i uint32, hardened bool) (*HDKey, error) {
	childIndex := i
	var data []byte
	if hardened {
		// data = 0x00 || ser256(parentKey) || ser32(i)
		childIndex += HardenedKeyStart
		scalar := k.privKey.Key.Bytes()
		data = make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, scalar[:]...)
	} else {
		// data = serP(parentPubKey) || ser32(i)
		data = make([]byte, 0, 37)
		data = append(data, k.pubKey.SerializeCompressed()...)
	}
	data = binary.BigEndian.AppendUint32(data, childIndex)

	// I = HMAC-SHA512(Key = chainCode, Data = data)
	hmac512 := hmac.New(sha512.New, k.chainCode)
	_, _ = hmac512.Write(data)
	ilr := hmac512.Sum(nil)

	il := ilr[:len(ilr)/2]
	childChainCode := ilr[len(ilr)/2:]

	var ilNum btcec.ModNScalar
	if overflow := ilNum.SetByteSlice(il); overflow {
		return nil, errInvalidChild
	}

	child := &HDKey{
		chainCode: childChainCode,
		depth:     k.depth + 1,
		index:     childIndex,
		parentFP:  k.Fingerprint(),
		version:   k.version,
	}

	if k.IsPrivate() {
		// childKey = parse256(Il) + parentKey
		ilNum.Add(&k.privKey.Key)
		if ilNum.IsZero() {
			return nil, errInvalidChild
		}

		var childBytes [32]byte
		ilNum.PutBytes(&childBytes)
		child.privKey, child.pubKey = btcec.PrivKeyFromBytes(
			childBytes[:],
		)

		return child, nil
	}

	// childKey = serP(point(parse256(Il)) + parentKey)
	var ilJ, parentJ, result btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&ilNum, &ilJ)
	k.pubKey.AsJacobian(&parentJ)
	btcec.AddNonConst(&ilJ, &parentJ, &result)

	if (result.X.IsZero() && result.Y.IsZero()) || result.Z.IsZero() {
		return nil, errInvalidChild
	}
	result.ToAffine()
	child.pubKey = btcec.NewPublicKey(&result.X, &result.Y)

	return child, nil
}

// DeriveNewMasterKey returns a new depth zero node seeded from this node's
// public key and chain code. No private material is required, so holders of
// the public node compute the same result.
func (k *HDKey) DeriveNewMasterKey() (*HDKey, error) {
	if k.chainCode == nil {
		return nil, ErrNoChainCode
	}

	hmac512 := hmac.New(sha512.New, k.pubKey.SerializeCompressed())
	_, _ = hmac512.Write(k.chainCode)
	lr := hmac512.Sum(nil)

	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(lr[:32]); overflow || s.IsZero() {
		return nil, ErrUnusableSeed
	}
	privKey, _ := btcec.PrivKeyFromBytes(lr[:32])

	return NewKeyFromPrivate(privKey, lr[32:], k.version), nil
}

// CreateIndexesFromWord derives up to 20 non-negative 31 bit integers keyed by
// this node's private scalar and the given word. The first length entries come
// from the two HMAC rounds, the last four from the trailing sha256.
func (k *HDKey) CreateIndexesFromWord(word string, length int) ([]uint32,
	error) {

	if !k.IsPrivate() {
		return nil, ErrNotPrivate
	}
	if k.chainCode == nil {
		return nil, ErrNoChainCode
	}
	if length < 0 || length > 16 {
		return nil, fmt.Errorf("length must be between 0 and 16, got %d",
			length)
	}

	wordHash := sha256.Sum256([]byte(word))
	h := hmac.New(sha512.New, k.chainCode)
	_, _ = h.Write(wordHash[:])
	hash := h.Sum(nil)

	scalar := k.privKey.Key.Bytes()
	h1 := hmac.New(sha512.New, scalar[:])
	_, _ = h1.Write(hash)
	hash1 := h1.Sum(nil)

	hash2 := sha256.Sum256(hash1)

	res := make([]uint32, 20)
	for i := 0; i < length; i++ {
		if i < 8 {
			res[i] = absInt32(hash[i*8:])
		} else {
			res[i] = absInt32(hash1[(i-8)*8:])
		}
	}
	for i := 0; i < 4; i++ {
		res[16+i] = absInt32(hash2[i*8:])
	}

	return res, nil
}

// absInt32 reads a big endian int32 and returns its magnitude, masked to 31
// bits so that it is always a valid non-hardened index.
func absInt32(b []byte) uint32 {
	v := int32(binary.BigEndian.Uint32(b))
	if v < 0 {
		v = -v
	}

	return uint32(v) & (HardenedKeyStart - 1)
}

// Sign produces a BIP-340 signature over the 32 byte hash.
func (k *HDKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != sha256.Size {
		return nil, ErrInvalidHashLen
	}
	if !k.IsPrivate() {
		return nil, ErrNotPrivate
	}

	sig, err := schnorr.Sign(k.privKey, hash)
	if err != nil {
		return nil, err
	}

	return sig.Serialize(), nil
}

// Verify checks a BIP-340 signature over the 32 byte hash against this node's
// public key.
func (k *HDKey) Verify(hash, sig []byte) (bool, error) {
	if len(hash) != sha256.Size {
		return false, ErrInvalidHashLen
	}
	if len(sig) != schnorr.SignatureSize {
		return false, ErrInvalidSigLen
	}

	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false, nil
	}

	return s.Verify(hash, k.pubKey), nil
}

// WipePrivateData zeroes the private scalar in place. The node is public-only
// afterwards.
func (k *HDKey) WipePrivateData() *HDKey {
	if k.privKey != nil {
		k.privKey.Zero()
		k.privKey = nil
	}

	return k
}

// Neuter returns a public-only copy of the node. The receiver is unchanged.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{
		pubKey:    k.pubKey,
		chainCode: k.chainCode,
		depth:     k.depth,
		index:     k.index,
		parentFP:  k.parentFP,
		version:   k.version,
	}
}

// IsPrivate reports whether the node holds a private scalar.
func (k *HDKey) IsPrivate() bool {
	return k.privKey != nil
}

// PublicKey returns the public point.
func (k *HDKey) PublicKey() *btcec.PublicKey {
	return k.pubKey
}

// PubKeyBytes returns the 33 byte compressed public key.
func (k *HDKey) PubKeyBytes() []byte {
	return k.pubKey.SerializeCompressed()
}

// NostrPubKey returns the hex encoded 32 byte x-only public key.
func (k *HDKey) NostrPubKey() string {
	return hex.EncodeToString(schnorr.SerializePubKey(k.pubKey))
}

// PubKeyHash returns the hex encoded sha256 of the compressed public key.
func (k *HDKey) PubKeyHash() string {
	h := sha256.Sum256(k.pubKey.SerializeCompressed())
	return hex.EncodeToString(h[:])
}

// PrivateKey returns the private key, or nil for a public-only node.
func (k *HDKey) PrivateKey() *btcec.PrivateKey {
	return k.privKey
}

// ChainCode returns the chain code, or nil if the node has none.
func (k *HDKey) ChainCode() []byte {
	return k.chainCode
}

// HasChainCode reports whether the node can derive children.
func (k *HDKey) HasChainCode() bool {
	return k.chainCode != nil
}

// Depth returns the number of derivation steps from the master node.
func (k *HDKey) Depth() uint8 {
	return k.depth
}

// Index returns the child index, including the hardened offset.
func (k *HDKey) Index() uint32 {
	return k.index
}

// ParentFingerprint returns the fingerprint of the parent as a uint32, zero
// at depth zero.
func (k *HDKey) ParentFingerprint() uint32 {
	if k.parentFP == nil {
		return 0
	}

	return binary.BigEndian.Uint32(k.parentFP)
}

// Fingerprint returns the first four bytes of hash160 of the compressed
// public key.
func (k *HDKey) Fingerprint() []byte {
	return btcutil.Hash160(k.pubKey.SerializeCompressed())[:4]
}

// Version returns the serialization profile.
func (k *HDKey) Version() *Version {
	return k.version
}

// IsEqual reports whether both nodes have the same public key and chain code.
func (k *HDKey) IsEqual(o *HDKey) bool {
	return k.pubKey.IsEqual(o.pubKey) &&
		bytes.Equal(k.chainCode, o.chainCode)
}

// String returns the extended public key, or the hex public key for a node
// without a chain code.
func (k *HDKey) String() string {
	if k.chainCode == nil {
		return hex.EncodeToString(k.PubKeyBytes())
	}

	s, err := k.ExtendedPublicKey()
	if err != nil {
		return hex.EncodeToString(k.PubKeyBytes())
	}

	return s
}

func copyChainCode(c []byte) []byte {
	if len(c) == 0 {
		return nil
	}

	return append([]byte(nil), c...)
}

func versionOrDefault(v *Version) *Version {
	if v == nil {
		return BitcoinMain
	}

	return v
}

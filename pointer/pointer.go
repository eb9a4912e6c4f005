package pointer

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Flag is the presence bitmask that leads every token.
type Flag uint8

const (
	// HasSigningKey marks a signing key field.
	HasSigningKey Flag = 0x01

	// HasEncryptKey marks an encryption key field.
	HasEncryptKey Flag = 0x02

	// HasSigningChain marks a signing chain code field.
	HasSigningChain Flag = 0x04

	// HasEncryptChain marks an encryption chain code field.
	HasEncryptChain Flag = 0x08

	// HasDocIndex marks a document index field.
	HasDocIndex Flag = 0x10

	// PrivateSigningKey marks that the signing key field holds a private
	// scalar rather than a compressed point, granting write access.
	PrivateSigningKey Flag = 0x20

	// SharedSecretMode marks that the sender's public key follows the
	// flag byte in the clear and the body is sealed under an ECDH key.
	SharedSecretMode Flag = 0x80

	presenceMask = HasSigningKey | HasEncryptKey | HasSigningChain |
		HasEncryptChain | HasDocIndex | PrivateSigningKey
)

const (
	// ChannelHRP is the human readable part of canonical tokens.
	ChannelHRP = "nprivatechannel"

	// ThreadHRP is the human readable part of the older fixed layout
	// tokens. These are only decoded.
	ThreadHRP = "nprivatethread1"

	// MaxTokenLen bounds the length of a token string.
	MaxTokenLen = 5000

	chainCodeLen = 32
)

var (
	// ErrDecryption is returned when a token body fails authentication,
	// usually because the wrong secret was supplied.
	ErrDecryption = errors.New("unable to decrypt pointer")

	// ErrUnknownPrefix is returned for a token whose human readable part
	// is not recognized.
	ErrUnknownPrefix = errors.New("unknown pointer prefix")

	// ErrTruncated is returned when a token ends before all flagged
	// fields were read.
	ErrTruncated = errors.New("pointer data truncated")

	// ErrTokenTooLong is returned when a token exceeds MaxTokenLen.
	ErrTokenTooLong = fmt.Errorf("pointer token exceeds %d characters",
		MaxTokenLen)

	// ErrSecretMode is returned when the supplied secret does not fit the
	// mode the token was sealed with.
	ErrSecretMode = errors.New("secret does not match pointer mode")

	// ErrEmptyPointer is returned when encoding a pointer with no fields.
	ErrEmptyPointer = errors.New("pointer carries no key material")
)

// Pointer is the key material carried by a token. Fields are present
// according to the flags computed by Flags.
type Pointer struct {
	// DocIndex is the document the pointer refers to, if any.
	DocIndex fn.Option[uint32]

	// SigningKey is the public signing key. It is ignored when
	// SigningPrivKey is set.
	SigningKey *btcec.PublicKey

	// SigningPrivKey is the private signing key, granting write access.
	SigningPrivKey *btcec.PrivateKey

	// EncryptKey is the public encryption key.
	EncryptKey *btcec.PublicKey

	SigningChain []byte
	EncryptChain []byte

	// Relays are relay URL hints.
	Relays []string

	// Owner is the hex x-only public key of the channel owner. Only older
	// thread tokens carry it.
	Owner string

	// Sender is the public key that sealed a shared secret token. It is
	// populated by Decode.
	Sender *btcec.PublicKey
}

// Flags returns the presence bitmask for the populated fields.
func (p *Pointer) Flags() Flag {
	var f Flag
	p.DocIndex.WhenSome(func(uint32) {
		f |= HasDocIndex
	})
	switch {
	case p.SigningPrivKey != nil:
		f |= HasSigningKey | PrivateSigningKey
	case p.SigningKey != nil:
		f |= HasSigningKey
	}
	if p.EncryptKey != nil {
		f |= HasEncryptKey
	}
	if len(p.SigningChain) > 0 {
		f |= HasSigningChain
	}
	if len(p.EncryptChain) > 0 {
		f |= HasEncryptChain
	}

	return f
}

// SigningPubKey returns the signing public key whether the pointer carries
// the public or the private half.
func (p *Pointer) SigningPubKey() *btcec.PublicKey {
	if p.SigningPrivKey != nil {
		return p.SigningPrivKey.PubKey()
	}

	return p.SigningKey
}

// String describes which fields are present, never their values.
func (p *Pointer) String() string {
	return fmt.Sprintf("pointer(flags=%#02x, relays=%d)", uint8(p.Flags()),
		len(p.Relays))
}

package pointer

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
)

// passwordLabel keys the HMAC that turns a password into a sealing key.
var passwordLabel = []byte("nip76")

// Secret unlocks a token. It is either a Password or a *SharedSecret.
type Secret interface {
	isSecret()
}

// Password seals a token under HMAC-SHA256("nip76", password).
type Password string

func (Password) isSecret() {}

func (p Password) key() []byte {
	mac := hmac.New(sha256.New, passwordLabel)
	_, _ = mac.Write([]byte(p))

	return mac.Sum(nil)
}

// SharedSecret seals a token under the x coordinate of an ECDH point. When
// encoding, Private is the sender and Peer the recipient. When decoding,
// Private is the recipient and the sender's key is read from the token.
type SharedSecret struct {
	Private *btcec.PrivateKey
	Peer    *btcec.PublicKey
}

func (*SharedSecret) isSecret() {}

func (s *SharedSecret) key(peer *btcec.PublicKey) ([]byte, error) {
	if s.Private == nil || peer == nil {
		return nil, errors.New("shared secret needs a private key and " +
			"a peer key")
	}

	return btcec.GenerateSharedSecret(s.Private, peer), nil
}

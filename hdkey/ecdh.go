package hdkey

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// ECDH returns the x coordinate of the point k*pub where k is this node's
// private scalar.
func (k *HDKey) ECDH(pub *btcec.PublicKey) ([]byte, error) {
	if !k.IsPrivate() {
		return nil, ErrNotPrivate
	}

	return btcec.GenerateSharedSecret(k.privKey, pub), nil
}

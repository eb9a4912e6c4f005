package wallet

import (
	"encoding/hex"

	"github.com/animiq/nip76/content"
	"github.com/animiq/nip76/docindex"
	"github.com/animiq/nip76/pointer"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// InvitationRequest describes who may open an invitation. Exactly one of
// For and Password is expected. For is a recipient public key. Relays
// defaults to the configured relays when empty.
type InvitationRequest struct {
	For      fn.Option[*btcec.PublicKey]
	Password string
	DocIndex uint32
	Relays   []string
}

// CreateInvitation returns the invitation document for a channel owned by
// profile n together with the token that opens it.
func (w *Wallet) CreateInvitation(n uint32, channel *docindex.Index,
	req InvitationRequest) (*content.Invitation, string, error) {

	p, err := w.Profile(n)
	if err != nil {
		return nil, "", err
	}

	sp, err := channel.SigningParent().ExtendedPublicKey()
	if err != nil {
		return nil, "", err
	}
	ep, err := channel.EncryptParent().ExtendedPublicKey()
	if err != nil {
		return nil, "", err
	}

	inv := content.NewInvitation()
	inv.Author = hex.EncodeToString(p.Key.PubKeyBytes())
	inv.SigningParent = sp
	inv.EncryptParent = ep
	inv.DocIndex = req.DocIndex
	inv.Password = req.Password
	inv.Relays = req.Relays
	if len(inv.Relays) == 0 {
		inv.Relays = append([]string(nil), w.cfg.Relays...)
	}
	req.For.WhenSome(func(pub *btcec.PublicKey) {
		inv.For = hex.EncodeToString(pub.SerializeCompressed())
		inv.Password = ""
	})

	token, err := docindex.InvitationPointer(inv, p.Key.PrivateKey())
	if err != nil {
		return nil, "", err
	}

	log.Debugf("Created invitation for channel %s", channel.EventTag())

	return inv, token, nil
}

// InvitationSecret returns the secret profile n opens invitations addressed
// to it with.
func (w *Wallet) InvitationSecret(n uint32) (pointer.Secret, error) {
	p, err := w.Profile(n)
	if err != nil {
		return nil, err
	}

	return &pointer.SharedSecret{Private: p.Key.PrivateKey()}, nil
}

// ReadInvitation opens an invitation token and returns the channel it
// points at.
func ReadInvitation(token string, secret pointer.Secret,
	opts ...docindex.Option) (*docindex.Index, error) {

	p, err := pointer.Decode(token, secret)
	if err != nil {
		return nil, err
	}

	return docindex.FromChannelPointer(p, opts...)
}

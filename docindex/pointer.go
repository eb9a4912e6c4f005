package docindex

import (
	"encoding/hex"
	"fmt"

	"github.com/animiq/nip76/content"
	"github.com/animiq/nip76/hdkey"
	"github.com/animiq/nip76/pointer"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nbd-wtf/go-nostr"
)

// FromChannelPointer builds a reader for the channel a pointer describes.
// With both chain codes the index is TimeBased, with neither it addresses
// the single document the bare keys belong to. A private signing key in the
// pointer grants write access.
func FromChannelPointer(p *pointer.Pointer, opts ...Option) (*Index,
	error) {

	if p.SigningPubKey() == nil || p.EncryptKey == nil {
		return nil, ErrIncompletePointer
	}

	typ := Singleton
	if len(p.SigningChain) > 0 && len(p.EncryptChain) > 0 {
		typ = TimeBased
	}

	signingChain, encryptChain := p.SigningChain, p.EncryptChain
	if typ == Singleton {
		signingChain, encryptChain = nil, nil
	}

	// The scalar is copied so that wiping the index leaves the pointer
	// intact.
	var (
		signing *hdkey.HDKey
		err     error
	)
	if p.SigningPrivKey != nil {
		scalar := p.SigningPrivKey.Key.Bytes()
		signing, err = hdkey.ParsePrivateKeyBytes(
			scalar[:], signingChain, hdkey.Nip76API1,
		)
	} else {
		signing, err = hdkey.ParsePublicKeyBytes(
			p.SigningKey.SerializeCompressed(), signingChain,
			hdkey.Nip76API1,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}
	encrypt, err := hdkey.ParsePublicKeyBytes(
		p.EncryptKey.SerializeCompressed(), encryptChain,
		hdkey.Nip76API1,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}

	return New(typ, signing, encrypt, opts...)
}

// ChannelPointer returns a pointer to the public material of this index.
func (i *Index) ChannelPointer(docIndex fn.Option[uint32],
	relays []string) *pointer.Pointer {

	p := &pointer.Pointer{
		DocIndex:     docIndex,
		SigningKey:   i.signingParent.PublicKey(),
		EncryptKey:   i.encryptParent.PublicKey(),
		SigningChain: i.signingParent.ChainCode(),
		EncryptChain: i.encryptParent.ChainCode(),
		Relays:       relays,
	}
	if i.typ.IsSingleton() {
		p.SigningChain, p.EncryptChain = nil, nil
	}

	return p
}

// InvitationPointer encodes the channel an invitation points at. An
// invitation for a specific public key is sealed to it by sender, any other
// is sealed under its password.
func InvitationPointer(inv *content.Invitation,
	sender *btcec.PrivateKey) (string, error) {

	sp, err := hdkey.ParseExtendedKey(inv.SigningParent)
	if err != nil {
		return "", fmt.Errorf("invalid signing parent: %w", err)
	}
	ep, err := hdkey.ParseExtendedKey(inv.EncryptParent)
	if err != nil {
		return "", fmt.Errorf("invalid encrypt parent: %w", err)
	}

	p := &pointer.Pointer{
		SigningKey:   sp.PublicKey(),
		EncryptKey:   ep.PublicKey(),
		SigningChain: sp.ChainCode(),
		EncryptChain: ep.ChainCode(),
		Relays:       inv.Relays,
	}
	if inv.DocIndex != 0 {
		p.DocIndex = fn.Some(inv.DocIndex)
	}

	if inv.For == "" {
		return pointer.Encode(p, pointer.Password(inv.Password))
	}

	raw, err := hex.DecodeString(inv.For)
	if err != nil {
		return "", fmt.Errorf("invalid recipient: %w", err)
	}
	recipient, err := parseRecipient(raw)
	if err != nil {
		return "", err
	}

	return pointer.Encode(p, &pointer.SharedSecret{
		Private: sender,
		Peer:    recipient,
	})
}

// parseRecipient accepts a compressed or an x-only public key.
func parseRecipient(raw []byte) (*btcec.PublicKey, error) {
	if len(raw) == 32 {
		raw = append([]byte{0x02}, raw...)
	}

	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	return pub, nil
}

// RelayFilter returns the subscription filter for this index's events.
func (i *Index) RelayFilter(limit int) nostr.Filters {
	return nostr.Filters{{
		Kinds: []int{EventKind},
		Tags:  nostr.TagMap{"e": []string{i.eventTag}},
		Limit: limit,
	}}
}

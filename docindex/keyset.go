package docindex

import (
	"fmt"

	"github.com/animiq/nip76/hdkey"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Keyset is the pair of keys addressing one document.
type Keyset struct {
	DocIndex uint32

	// Signing is absent when the index cannot sign at this position,
	// e.g. a non-private index without an external signer.
	Signing fn.Option[*hdkey.HDKey]

	Encrypt *hdkey.HDKey
}

// EncryptionSecret returns the symmetric key for the document, the
// compressed encryption public key without its prefix byte.
func (k *Keyset) EncryptionSecret() []byte {
	return k.Encrypt.PubKeyBytes()[1:]
}

// KeysetPage is a window of PageSize consecutive private keysets.
type KeysetPage struct {
	Offset  uint32
	Page    uint32
	Keysets []*Keyset
}

// Find returns the keyset at docIndex if the page covers it.
func (p *KeysetPage) Find(docIndex uint32) fn.Option[*Keyset] {
	start := p.Offset + p.Page*PageSize
	if docIndex < start || docIndex-start >= uint32(len(p.Keysets)) {
		return fn.None[*Keyset]()
	}

	return fn.Some(p.Keysets[docIndex-start])
}

type pageKey struct {
	offset uint32
	page   uint32
}

// DocumentKeyset returns the keys for the document at docIndex. The
// external key, when given, becomes an ephemeral signer anchored to the
// signing parent's chain code. It is only used by non-private indexes.
func (i *Index) DocumentKeyset(docIndex uint32,
	external fn.Option[*btcec.PrivateKey]) (*Keyset, error) {

	switch {
	case i.typ.IsSingleton():
		signing := fn.None[*hdkey.HDKey]()
		if i.signingParent.IsPrivate() {
			signing = fn.Some(i.signingParent)
		}

		return &Keyset{
			DocIndex: docIndex,
			Signing:  signing,
			Encrypt:  i.encryptParent,
		}, nil

	case i.typ.IsPrivate():
		if ks, ok := i.pagedKeyset(docIndex); ok {
			return ks, nil
		}

		return i.foldKeyset(docIndex)
	}

	encrypt, err := i.encryptParent.DeriveChildKey(docIndex, false)
	if err != nil {
		return nil, fmt.Errorf("unable to derive encryption key: %w",
			err)
	}

	ks := &Keyset{
		DocIndex: docIndex,
		Signing:  fn.None[*hdkey.HDKey](),
		Encrypt:  encrypt,
	}

	if external.IsNone() {
		return ks, nil
	}
	priv := external.UnsafeFromSome()

	signer, err := hdkey.NewKeyFromPrivate(
		priv, i.signingParent.ChainCode(), i.signingParent.Version(),
	).DeriveChildKey(docIndex, false)
	if err != nil {
		return nil, fmt.Errorf("unable to derive signing key: %w", err)
	}
	ks.Signing = fn.Some(signer)

	return ks, nil
}

// foldKeyset derives a private keyset from the wordset. Signing keys fold
// the words in order, encryption keys in reverse.
func (i *Index) foldKeyset(docIndex uint32) (*Keyset, error) {
	ws, err := i.wordset.UnwrapOrErr(ErrWordsetRequired)
	if err != nil {
		return nil, err
	}
	if !i.encryptParent.IsPrivate() {
		return nil, ErrPrivateKeyRequired
	}

	encrypt, err := ws.Fold(i.encryptParent, docIndex, true)
	if err != nil {
		return nil, fmt.Errorf("unable to fold encryption key: %w", err)
	}

	ks := &Keyset{
		DocIndex: docIndex,
		Signing:  fn.None[*hdkey.HDKey](),
		Encrypt:  encrypt,
	}
	if i.signingParent.IsPrivate() {
		signing, err := ws.Fold(i.signingParent, docIndex, false)
		if err != nil {
			return nil, fmt.Errorf("unable to fold signing key: %w",
				err)
		}
		ks.Signing = fn.Some(signing)
	}

	return ks, nil
}

// pagedKeyset looks docIndex up in the materialized pages.
func (i *Index) pagedKeyset(docIndex uint32) (*Keyset, bool) {
	i.pagesMtx.Lock()
	defer i.pagesMtx.Unlock()

	for _, p := range i.pages {
		if ks := p.Find(docIndex); ks.IsSome() {
			return ks.UnsafeFromSome(), true
		}
	}

	return nil, false
}

// SequentialKeyset returns page number page of the keysets starting at
// offset. Pages are derived once and then served from memory.
func (i *Index) SequentialKeyset(offset, page uint32) (*KeysetPage, error) {
	key := pageKey{offset: offset, page: page}

	i.pagesMtx.Lock()
	cached, ok := i.pages[key]
	i.pagesMtx.Unlock()
	if ok {
		return cached, nil
	}

	if !i.signingParent.IsPrivate() {
		return nil, ErrPrivateKeyRequired
	}
	if i.wordset.IsNone() {
		return nil, ErrWordsetRequired
	}

	start := uint64(offset) + uint64(page)*PageSize
	if start+PageSize > hdkey.HardenedKeyStart {
		return nil, hdkey.ErrInvalidIndex
	}

	p := &KeysetPage{
		Offset:  offset,
		Page:    page,
		Keysets: make([]*Keyset, 0, PageSize),
	}
	for n := uint32(0); n < PageSize; n++ {
		ks, err := i.foldKeyset(uint32(start) + n)
		if err != nil {
			return nil, err
		}
		p.Keysets = append(p.Keysets, ks)
	}

	i.pagesMtx.Lock()
	if existing, ok := i.pages[key]; ok {
		p = existing
	} else {
		i.pages[key] = p
	}
	i.pagesMtx.Unlock()

	log.Tracef("Materialized page %d at offset %d", page, offset)

	return p, nil
}

package docindex

import (
	"encoding/hex"
	"fmt"

	"github.com/animiq/nip76/content"
	"github.com/animiq/nip76/envelope"
	"github.com/animiq/nip76/hdkey"
	"github.com/animiq/nip76/monitoring"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nbd-wtf/go-nostr"
)

// documentIndex returns the index doc is addressed at under this mode when
// written at unix time now.
func (i *Index) documentIndex(doc content.Document,
	now int64) (uint32, error) {

	switch {
	case i.typ.IsSingleton():
		return 0, nil

	case i.typ.IsTimeBased():
		return timeIndex(now), nil
	}

	idx := doc.Meta().DocIndex()
	if idx == 0 {
		return 0, ErrDocIndexRequired
	}

	return idx, nil
}

// sequentialTag is the event tag of a sequential document, the hash of the
// first child of its signing key.
func sequentialTag(signing *hdkey.HDKey) (string, error) {
	k, err := signing.DeriveChildKey(0, false)
	if err != nil {
		return "", err
	}

	return k.PubKeyHash(), nil
}

// CreateEvent encrypts doc under its keyset and returns the signed event.
// Non-private indexes need the external key of the author to sign.
func (i *Index) CreateEvent(doc content.Document,
	external fn.Option[*btcec.PrivateKey]) (*nostr.Event, error) {

	// The document index of a time based event must agree with its
	// timestamp.
	now := i.clock.Now().Unix()
	docIndex, err := i.documentIndex(doc, now)
	if err != nil {
		return nil, err
	}

	ks, err := i.DocumentKeyset(docIndex, external)
	if err != nil {
		return nil, err
	}
	signing, err := ks.Signing.UnwrapOrErr(i.missingSignerErr())
	if err != nil {
		return nil, err
	}

	h := doc.Meta()
	if h.Author == "" {
		external.WhenSome(func(priv *btcec.PrivateKey) {
			h.Author = hex.EncodeToString(
				priv.PubKey().SerializeCompressed(),
			)
		})
	}
	if h.Author == "" && i.signingParent.IsPrivate() {
		h.Author = hex.EncodeToString(i.signingParent.PubKeyBytes())
	}

	payload, err := content.Encode(doc)
	if err != nil {
		return nil, err
	}

	c, err := envelope.New(ks.EncryptionSecret())
	if err != nil {
		return nil, err
	}
	sealed, err := c.SealString(payload)
	if err != nil {
		return nil, err
	}

	tag := i.eventTag
	if i.typ.IsSequential() {
		tag, err = sequentialTag(signing)
		if err != nil {
			return nil, err
		}
	}

	evt := &nostr.Event{
		Kind:      EventKind,
		CreatedAt: nostr.Timestamp(now),
		Tags:      nostr.Tags{{"e", tag}},
		PubKey:    signing.NostrPubKey(),
		Content:   sealed,
	}
	if err := signEvent(evt, signing); err != nil {
		return nil, err
	}

	h.Bind(i, evt, docIndex, true)
	i.upsert(doc)

	monitoring.IncrementEventsCreated()
	log.Debugf("Created kind %d document at index %d as event %s",
		h.Kind, docIndex, evt.ID)

	return evt, nil
}

// CreateDeleteEvent returns a tombstone for a published document, signed
// by the key that signed it.
func (i *Index) CreateDeleteEvent(doc content.Document,
	external fn.Option[*btcec.PrivateKey]) (*nostr.Event, error) {

	h := doc.Meta()
	if h.Event() == nil {
		return nil, ErrNotPublished
	}

	ks, err := i.DocumentKeyset(h.DocIndex(), external)
	if err != nil {
		return nil, err
	}
	signing, err := ks.Signing.UnwrapOrErr(i.missingSignerErr())
	if err != nil {
		return nil, err
	}

	evt := &nostr.Event{
		Kind:      DeleteKind,
		CreatedAt: nostr.Timestamp(i.clock.Now().Unix()),
		Tags:      nostr.Tags{{"e", h.Event().ID}},
		PubKey:    signing.NostrPubKey(),
	}
	if err := signEvent(evt, signing); err != nil {
		return nil, err
	}

	return evt, nil
}

// missingSignerErr explains why no signing key could be found.
func (i *Index) missingSignerErr() error {
	if i.typ.IsPrivate() || i.typ.IsSingleton() {
		return ErrPrivateKeyRequired
	}

	return ErrExternalKeyRequired
}

// signEvent sets the id and schnorr signature of evt.
func signEvent(evt *nostr.Event, signing *hdkey.HDKey) error {
	evt.ID = evt.GetID()

	id, err := hex.DecodeString(evt.ID)
	if err != nil {
		return fmt.Errorf("invalid event id: %w", err)
	}
	sig, err := signing.Sign(id)
	if err != nil {
		return err
	}
	evt.Sig = hex.EncodeToString(sig)

	return nil
}

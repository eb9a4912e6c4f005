package docindex

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/animiq/nip76/content"
	"github.com/animiq/nip76/envelope"
	"github.com/animiq/nip76/hdkey"
	"github.com/animiq/nip76/logutil"
	"github.com/animiq/nip76/monitoring"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btclog/v2"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/nbd-wtf/go-nostr"
	"golang.org/x/sync/errgroup"
)

// EventRef is an event to read along with its position in a sequential
// index, if known.
type EventRef struct {
	Event    *nostr.Event
	SeqIndex fn.Option[uint32]
}

// eventIndex returns the document index evt is addressed at.
func (i *Index) eventIndex(evt *nostr.Event,
	seq fn.Option[uint32]) (uint32, error) {

	switch {
	case i.typ.IsSingleton():
		return 0, nil

	case i.typ.IsTimeBased():
		return timeIndex(int64(evt.CreatedAt)), nil
	}

	return seq.UnwrapOrErr(ErrDocIndexRequired)
}

// DecodeEvent verifies and decrypts evt, then caches the document. The
// document is marked verified only when the event was signed by the key its
// author is expected to sign with at this index.
func (i *Index) DecodeEvent(evt *nostr.Event,
	seq fn.Option[uint32]) (content.Document, error) {

	if evt == nil {
		return nil, ErrNilEvent
	}
	if evt.Kind != EventKind {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedKind, evt.Kind)
	}

	docIndex, err := i.eventIndex(evt, seq)
	if err != nil {
		return nil, err
	}

	ks, err := i.DocumentKeyset(docIndex, fn.None[*btcec.PrivateKey]())
	if err != nil {
		return nil, err
	}

	ok, err := evt.CheckSignature()
	if err != nil || !ok {
		return nil, ErrBadSignature
	}

	c, err := envelope.New(ks.EncryptionSecret())
	if err != nil {
		return nil, err
	}
	payload, err := c.OpenString(evt.Content)
	if err != nil {
		return nil, err
	}

	doc, err := content.Decode(payload)
	if err != nil {
		return nil, err
	}

	verified := i.verifySigner(evt, ks, doc.Meta().Author)
	doc.Meta().Bind(i, evt, docIndex, verified)
	i.upsert(doc)

	monitoring.IncrementEventsRead()

	return doc, nil
}

// verifySigner reports whether evt was signed by the key expected of author
// at the keyset's index.
func (i *Index) verifySigner(evt *nostr.Event, ks *Keyset,
	author string) bool {

	switch {
	case i.typ.IsSingleton():
		return evt.PubKey == i.signingParent.NostrPubKey()

	case i.typ.IsPrivate():
		if ks.Signing.IsNone() {
			return false
		}

		return evt.PubKey == ks.Signing.UnsafeFromSome().NostrPubKey()
	}

	raw, err := hex.DecodeString(author)
	if err != nil {
		return false
	}
	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return false
	}

	expected, err := hdkey.NewKeyFromPublic(
		pub, i.signingParent.ChainCode(), i.signingParent.Version(),
	).DeriveChildKey(ks.DocIndex, false)
	if err != nil {
		return false
	}

	return evt.PubKey == expected.NostrPubKey()
}

// readFailureReason buckets a read error for the failure counter.
func readFailureReason(err error) string {
	var decErr *envelope.DecryptionError
	switch {
	case errors.As(err, &decErr):
		return "decrypt"
	case errors.Is(err, ErrBadSignature):
		return "signature"
	case errors.Is(err, content.ErrUnsupportedKind):
		return "kind"
	case errors.Is(err, ErrUnexpectedKind):
		return "kind"
	default:
		return "other"
	}
}

// ReadEvent is DecodeEvent for callers that skip unreadable events. The
// failure is logged and counted.
func (i *Index) ReadEvent(ctx context.Context, evt *nostr.Event,
	seq fn.Option[uint32]) fn.Option[content.Document] {

	doc, err := i.DecodeEvent(evt, seq)
	if err != nil {
		reason := readFailureReason(err)
		monitoring.IncrementReadFailures(reason)

		var id string
		if evt != nil {
			id = evt.ID
		}
		log.DebugS(ctx, "Skipping unreadable event",
			logutil.Short("event_id", id), "reason", reason,
			"err", err)

		return fn.None[content.Document]()
	}

	return fn.Some(doc)
}

// ReadEvents reads refs concurrently and returns the readable documents,
// newest first.
func (i *Index) ReadEvents(ctx context.Context,
	refs []EventRef) []content.Document {

	ctx = btclog.WithCtx(ctx, logutil.Short("event_tag", i.eventTag))

	results := make([]fn.Option[content.Document], len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.readWorkers)
	for n, ref := range refs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[n] = i.ReadEvent(gctx, ref.Event, ref.SeqIndex)

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WarnS(ctx, "Read interrupted", err)
	}

	docs := make([]content.Document, 0, len(refs))
	for _, r := range results {
		r.WhenSome(func(d content.Document) {
			docs = append(docs, d)
		})
	}
	sortNewestFirst(docs)

	log.DebugS(ctx, "Read events", "total", len(refs),
		"readable", len(docs))

	return docs
}

package docindex

import (
	"fmt"
	"sort"
	"sync"

	"github.com/animiq/nip76/content"
	"github.com/animiq/nip76/hdkey"
	"github.com/animiq/nip76/nipcfg"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// EventKind is the wire kind of document events.
	EventKind = 17761

	// DeleteKind is the wire kind of tombstones.
	DeleteKind = 5

	// PageSize is the number of keysets in a sequential page.
	PageSize = 20

	// timeIndexModulus bounds time based document indexes to the non
	// hardened range.
	timeIndexModulus = hdkey.HardenedKeyStart
)

// Index maps document indexes to signing and encryption keys under one
// addressing mode, and caches the documents read through it.
type Index struct {
	typ           Type
	signingParent *hdkey.HDKey
	encryptParent *hdkey.HDKey
	wordset       fn.Option[hdkey.Wordset]
	eventTag      string

	clock       clock.Clock
	readWorkers int

	pagesMtx sync.Mutex
	pages    map[pageKey]*KeysetPage

	docsMtx sync.RWMutex
	docs    []content.Document
}

// Compile-time check that an Index can be a document's origin.
var _ content.Origin = (*Index)(nil)

// Option modifies an Index during construction.
type Option func(*Index)

// WithWordset sets the wordset of a Private index.
func WithWordset(ws hdkey.Wordset) Option {
	return func(i *Index) {
		i.wordset = fn.Some(ws)
	}
}

// WithClock replaces the wall clock used to stamp events.
func WithClock(c clock.Clock) Option {
	return func(i *Index) {
		i.clock = c
	}
}

// WithReadWorkers bounds the parallelism of ReadEvents.
func WithReadWorkers(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.readWorkers = n
		}
	}
}

// WithPages seeds the page cache with pre-derived keysets. A Private index
// built from pages alone can only address documents inside them.
func WithPages(pages ...*KeysetPage) Option {
	return func(i *Index) {
		for _, p := range pages {
			i.pages[pageKey{offset: p.Offset, page: p.Page}] = p
		}
	}
}

// New validates the addressing mode and returns an index over the two
// parents.
func New(typ Type, signingParent, encryptParent *hdkey.HDKey,
	opts ...Option) (*Index, error) {

	if err := typ.Validate(); err != nil {
		return nil, err
	}

	i := &Index{
		typ:           typ,
		signingParent: signingParent,
		encryptParent: encryptParent,
		wordset:       fn.None[hdkey.Wordset](),
		clock:         clock.NewDefaultClock(),
		readWorkers:   nipcfg.DefaultReadWorkers,
		pages:         make(map[pageKey]*KeysetPage),
	}
	for _, opt := range opts {
		opt(i)
	}

	if typ.IsPrivate() {
		delegated := len(i.pages) > 0
		if i.wordset.IsNone() && !delegated {
			return nil, ErrWordsetRequired
		}
		if !encryptParent.IsPrivate() && !delegated {
			return nil, ErrPrivateKeyRequired
		}
	}

	tag, err := eventTagFor(typ, signingParent)
	if err != nil {
		return nil, err
	}
	i.eventTag = tag

	log.Debugf("Created %v index with event tag %s", typ, tag)

	return i, nil
}

// eventTagFor hashes the grandchild m/0/0 of the signing parent. Singleton
// parents, which readers may hold without chain codes, are hashed directly.
func eventTagFor(typ Type, signingParent *hdkey.HDKey) (string, error) {
	if typ.IsSingleton() || !signingParent.HasChainCode() {
		return signingParent.PubKeyHash(), nil
	}

	k, err := signingParent.DerivePath([]hdkey.PathElement{
		{Index: 0}, {Index: 0},
	})
	if err != nil {
		return "", err
	}

	return k.PubKeyHash(), nil
}

// Type returns the addressing mode.
func (i *Index) Type() Type {
	return i.typ
}

// EventTag returns the hash used to group this index's events.
func (i *Index) EventTag() string {
	return i.eventTag
}

// SigningParent returns the signing parent key.
func (i *Index) SigningParent() *hdkey.HDKey {
	return i.signingParent
}

// EncryptParent returns the encryption parent key.
func (i *Index) EncryptParent() *hdkey.HDKey {
	return i.encryptParent
}

// Documents returns the cached documents, newest first.
func (i *Index) Documents() []content.Document {
	i.docsMtx.RLock()
	defer i.docsMtx.RUnlock()

	docs := make([]content.Document, len(i.docs))
	copy(docs, i.docs)

	return docs
}

// cacheKey identifies a document for deduplication. Sequential documents are
// keyed by index, all others by the key that signed them.
func (i *Index) cacheKey(doc content.Document) string {
	h := doc.Meta()
	if i.typ.IsSequential() {
		return fmt.Sprintf("idx:%d", h.DocIndex())
	}
	if evt := h.Event(); evt != nil {
		return "sig:" + evt.PubKey
	}

	return "author:" + h.Author
}

// upsert stores doc unless a newer document with the same key is cached.
func (i *Index) upsert(doc content.Document) {
	key := i.cacheKey(doc)

	i.docsMtx.Lock()
	defer i.docsMtx.Unlock()

	for n, existing := range i.docs {
		if i.cacheKey(existing) != key {
			continue
		}
		if existing.Meta().CreatedAt() > doc.Meta().CreatedAt() {
			return
		}
		i.docs = append(i.docs[:n], i.docs[n+1:]...)
		break
	}

	i.docs = append(i.docs, doc)
	sortNewestFirst(i.docs)
}

func sortNewestFirst(docs []content.Document) {
	sort.SliceStable(docs, func(a, b int) bool {
		return docs[a].Meta().CreatedAt() > docs[b].Meta().CreatedAt()
	})
}

// timeIndex maps a unix timestamp to a document index. The quotient of the
// division is dropped, so timestamps 2^31 seconds apart share an index.
func timeIndex(unix int64) uint32 {
	return uint32(uint64(unix) % timeIndexModulus)
}

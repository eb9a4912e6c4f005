package docindex

import (
	"encoding/json"
	"fmt"

	"github.com/animiq/nip76/hdkey"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// KeysetState is the serialized form of a keyset.
type KeysetState struct {
	DocIndex uint32 `json:"doc_index"`

	// Signing is an extended private key, empty when the keyset cannot
	// sign.
	Signing string `json:"signing,omitempty"`

	// Encrypt is an extended public key.
	Encrypt string `json:"encrypt"`
}

// PageState is the serialized form of a KeysetPage.
type PageState struct {
	Offset  uint32        `json:"offset"`
	Page    uint32        `json:"page"`
	Keysets []KeysetState `json:"keysets"`
}

// State is everything needed to rebuild an index.
type State struct {
	Type          Type        `json:"type"`
	SigningParent string      `json:"signing_parent"`
	EncryptParent string      `json:"encrypt_parent"`
	Wordset       []uint32    `json:"wordset,omitempty"`
	EventTag      string      `json:"event_tag"`
	Pages         []PageState `json:"pages,omitempty"`
}

// Encode serializes the state.
func (s *State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses a serialized state.
func DecodeState(b []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("unable to decode index state: %w", err)
	}

	return &s, nil
}

func serializeKey(k *hdkey.HDKey) (string, error) {
	if k.IsPrivate() {
		return k.ExtendedPrivateKey()
	}

	return k.ExtendedPublicKey()
}

func exportPage(p *KeysetPage) (PageState, error) {
	ps := PageState{
		Offset:  p.Offset,
		Page:    p.Page,
		Keysets: make([]KeysetState, 0, len(p.Keysets)),
	}
	for _, ks := range p.Keysets {
		xpub, err := ks.Encrypt.ExtendedPublicKey()
		if err != nil {
			return PageState{}, err
		}
		s := KeysetState{
			DocIndex: ks.DocIndex,
			Encrypt:  xpub,
		}
		if ks.Signing.IsSome() {
			xprv, err := ks.Signing.UnsafeFromSome().
				ExtendedPrivateKey()
			if err != nil {
				return PageState{}, err
			}
			s.Signing = xprv
		}
		ps.Keysets = append(ps.Keysets, s)
	}

	return ps, nil
}

func (i *Index) exportPages() ([]PageState, error) {
	i.pagesMtx.Lock()
	pages := make([]*KeysetPage, 0, len(i.pages))
	for _, p := range i.pages {
		pages = append(pages, p)
	}
	i.pagesMtx.Unlock()

	states := make([]PageState, 0, len(pages))
	for _, p := range pages {
		ps, err := exportPage(p)
		if err != nil {
			return nil, err
		}
		states = append(states, ps)
	}

	return states, nil
}

// Export returns the full state of the index, private material included.
func (i *Index) Export() (*State, error) {
	sp, err := serializeKey(i.signingParent)
	if err != nil {
		return nil, err
	}
	ep, err := serializeKey(i.encryptParent)
	if err != nil {
		return nil, err
	}
	pages, err := i.exportPages()
	if err != nil {
		return nil, err
	}

	s := &State{
		Type:          i.typ,
		SigningParent: sp,
		EncryptParent: ep,
		EventTag:      i.eventTag,
		Pages:         pages,
	}
	i.wordset.WhenSome(func(ws hdkey.Wordset) {
		s.Wordset = append([]uint32(nil), ws[:]...)
	})

	return s, nil
}

// ExportDelegate returns a state that can read and write the documents of
// one sequential page without revealing the wordset or the private parents.
func (i *Index) ExportDelegate(offset, page uint32) (*State, error) {
	p, err := i.SequentialKeyset(offset, page)
	if err != nil {
		return nil, err
	}
	ps, err := exportPage(p)
	if err != nil {
		return nil, err
	}

	sp, err := i.signingParent.ExtendedPublicKey()
	if err != nil {
		return nil, err
	}
	ep, err := i.encryptParent.ExtendedPublicKey()
	if err != nil {
		return nil, err
	}

	return &State{
		Type:          i.typ,
		SigningParent: sp,
		EncryptParent: ep,
		EventTag:      i.eventTag,
		Pages:         []PageState{ps},
	}, nil
}

func importPage(ps PageState) (*KeysetPage, error) {
	p := &KeysetPage{
		Offset:  ps.Offset,
		Page:    ps.Page,
		Keysets: make([]*Keyset, 0, len(ps.Keysets)),
	}
	for _, s := range ps.Keysets {
		enc, err := hdkey.ParseExtendedKey(s.Encrypt)
		if err != nil {
			return nil, err
		}
		ks := &Keyset{
			DocIndex: s.DocIndex,
			Signing:  fn.None[*hdkey.HDKey](),
			Encrypt:  enc,
		}
		if s.Signing != "" {
			sig, err := hdkey.ParseExtendedKey(s.Signing)
			if err != nil {
				return nil, err
			}
			ks.Signing = fn.Some(sig)
		}
		p.Keysets = append(p.Keysets, ks)
	}

	return p, nil
}

// Import rebuilds an index from its state. The options are applied after
// the state.
func Import(s *State, opts ...Option) (*Index, error) {
	sp, err := hdkey.ParseExtendedKey(s.SigningParent)
	if err != nil {
		return nil, fmt.Errorf("invalid signing parent: %w", err)
	}
	ep, err := hdkey.ParseExtendedKey(s.EncryptParent)
	if err != nil {
		return nil, fmt.Errorf("invalid encrypt parent: %w", err)
	}

	var stateOpts []Option
	if len(s.Wordset) > 0 {
		ws, err := wordsetFromSlice(s.Wordset)
		if err != nil {
			return nil, err
		}
		stateOpts = append(stateOpts, WithWordset(ws))
	}

	pages := make([]*KeysetPage, 0, len(s.Pages))
	for _, ps := range s.Pages {
		p, err := importPage(ps)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	if len(pages) > 0 {
		stateOpts = append(stateOpts, WithPages(pages...))
	}

	i, err := New(s.Type, sp, ep, append(stateOpts, opts...)...)
	if err != nil {
		return nil, err
	}

	if s.EventTag != "" && s.EventTag != i.eventTag {
		log.Warnf("Imported event tag %s differs from derived %s",
			s.EventTag, i.eventTag)
	}

	return i, nil
}

func wordsetFromSlice(words []uint32) (hdkey.Wordset, error) {
	var ws hdkey.Wordset
	if len(words) != len(ws) {
		return ws, fmt.Errorf("wordset must have %d words, got %d",
			len(ws), len(words))
	}
	copy(ws[:], words)

	return ws, nil
}

package content

import (
	"github.com/nbd-wtf/go-nostr"
)

// Kind discriminates document payloads. The values follow the nostr event
// kinds the payload types mirror.
type Kind int

const (
	// KindText is a text post.
	KindText Kind = 1

	// KindContacts is a follow record pointing at another channel.
	KindContacts Kind = 3

	// KindReaction is a reaction to a post.
	KindReaction Kind = 7

	// KindChannelMetadata describes a private channel.
	KindChannelMetadata Kind = 41

	// KindInvitation grants access to a channel.
	KindInvitation Kind = 1776

	// KindRsvp answers an invitation.
	KindRsvp Kind = 1777
)

// Origin is the index a document was read from or written to.
type Origin interface {
	// EventTag returns the tag grouping the index's events.
	EventTag() string
}

// Document is implemented by every payload type.
type Document interface {
	// Meta returns the common header.
	Meta() *Header
}

// Header holds the fields shared by every payload. Only Kind, Author and
// Tags are serialized, the rest is populated when an event is read.
type Header struct {
	Kind Kind `json:"kind"`

	// Author is the hex encoded compressed public key of the identity
	// that wrote the document.
	Author string `json:"pubkey,omitempty"`

	Tags nostr.Tags `json:"tags,omitempty"`

	docIndex uint32
	event    *nostr.Event
	verified bool
	origin   Origin
}

// Meta returns the header itself.
func (h *Header) Meta() *Header {
	return h
}

// DocIndex returns the index the document was read at, or will be written
// at.
func (h *Header) DocIndex() uint32 {
	return h.docIndex
}

// SetDocIndex sets the index to write the document at.
func (h *Header) SetDocIndex(i uint32) {
	h.docIndex = i
}

// Event returns the wire event the document was decoded from.
func (h *Header) Event() *nostr.Event {
	return h.event
}

// Verified reports whether the event signer matched the key expected for
// the author at this document's index. An unverified document decrypted
// fine but may have been posted by a guest signer.
func (h *Header) Verified() bool {
	return h.verified
}

// Origin returns the index the document belongs to.
func (h *Header) Origin() Origin {
	return h.origin
}

// CreatedAt returns the timestamp of the wire event, zero if the document
// has not been read from one.
func (h *Header) CreatedAt() nostr.Timestamp {
	if h.event == nil {
		return 0
	}

	return h.event.CreatedAt
}

// Bind attaches the runtime state established while reading an event.
func (h *Header) Bind(origin Origin, evt *nostr.Event, docIndex uint32,
	verified bool) {

	h.origin = origin
	h.event = evt
	h.docIndex = docIndex
	h.verified = verified
}

// Channel is the metadata of a private channel.
type Channel struct {
	Header

	Name           string `json:"name,omitempty"`
	About          string `json:"about,omitempty"`
	Picture        string `json:"picture,omitempty"`
	LastKnownIndex uint32 `json:"last_known_index"`

	// SigningChain and EncryptChain are the hex chain codes of the
	// channel's parents so that members can derive its documents.
	SigningChain string `json:"chain_code_ap,omitempty"`
	EncryptChain string `json:"chain_code_sp,omitempty"`

	Relays []string `json:"relays,omitempty"`
}

// NewChannel returns an empty channel document.
func NewChannel() *Channel {
	return &Channel{Header: Header{Kind: KindChannelMetadata}}
}

// Post is a text post or a reaction.
type Post struct {
	Header

	Message string `json:"message,omitempty"`
	Link    string `json:"link,omitempty"`
	Picture string `json:"full_picture,omitempty"`

	// ReplyTo is the id of the event this post answers, if any.
	ReplyTo string `json:"reply_to,omitempty"`
}

// NewPost returns an empty text post.
func NewPost() *Post {
	return &Post{Header: Header{Kind: KindText}}
}

// NewReaction returns a reaction to the event id.
func NewReaction(eventID, reaction string) *Post {
	return &Post{
		Header:  Header{Kind: KindReaction},
		Message: reaction,
		ReplyTo: eventID,
	}
}

// Follow records that the author follows another channel.
type Follow struct {
	Header

	Owner      string   `json:"owner"`
	SigningKey string   `json:"signing_key"`
	EncryptKey string   `json:"crypto_key"`
	Relays     []string `json:"relays,omitempty"`
}

// NewFollow returns an empty follow document.
func NewFollow() *Follow {
	return &Follow{Header: Header{Kind: KindContacts}}
}

// Invitation grants a recipient access to a channel. An invitation either
// targets one public key (For) or is unlocked by a password.
type Invitation struct {
	Header

	For      string `json:"for,omitempty"`
	Password string `json:"password,omitempty"`
	DocIndex uint32 `json:"doc_index"`

	// SigningParent and EncryptParent are extended public keys of the
	// channel the invitation points at.
	SigningParent string `json:"signing_parent,omitempty"`
	EncryptParent string `json:"crypto_parent,omitempty"`

	// Relays are hints where the channel's events are published.
	Relays []string `json:"relays,omitempty"`
}

// NewInvitation returns an empty invitation.
func NewInvitation() *Invitation {
	return &Invitation{Header: Header{Kind: KindInvitation}}
}

// Rsvp answers an invitation with the pointer material the recipient
// accepted.
type Rsvp struct {
	Header

	PointerType     uint8  `json:"type"`
	PointerDocIndex uint32 `json:"pointer_doc_index"`
	SigningKey      string `json:"signing_key"`
	EncryptKey      string `json:"crypto_key"`
}

// NewRsvp returns an empty rsvp.
func NewRsvp() *Rsvp {
	return &Rsvp{Header: Header{Kind: KindRsvp}}
}

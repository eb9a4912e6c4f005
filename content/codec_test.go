package content

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

type testOrigin string

func (o testOrigin) EventTag() string {
	return string(o)
}

func TestDecodeDispatchesOnKind(t *testing.T) {
	t.Parallel()

	channel := NewChannel()
	channel.Name = "general"
	channel.Relays = []string{"wss://relay.example.com"}

	post := NewPost()
	post.Message = "hello"
	post.Tags = nostr.Tags{{"t", "intro"}}

	tests := []struct {
		name string
		doc  Document
	}{
		{name: "channel", doc: channel},
		{name: "post", doc: post},
		{name: "reaction", doc: NewReaction("abcd", "+")},
		{name: "follow", doc: &Follow{
			Header:     Header{Kind: KindContacts, Author: "02aa"},
			Owner:      "02bb",
			SigningKey: "03cc",
			EncryptKey: "02dd",
		}},
		{name: "invitation", doc: &Invitation{
			Header:   Header{Kind: KindInvitation},
			Password: "hunter2",
			DocIndex: 3,
		}},
		{name: "rsvp", doc: &Rsvp{
			Header:          Header{Kind: KindRsvp},
			PointerType:     0x13,
			PointerDocIndex: 3,
		}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			b, err := Encode(test.doc)
			require.NoError(t, err)

			got, err := Decode(b)
			require.NoError(t, err)
			require.IsType(t, test.doc, got)
			require.Equal(t, test.doc, got)
		})
	}
}

func TestDecodeUnsupportedKind(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"kind":9999}`))
	require.ErrorIs(t, err, ErrUnsupportedKind)

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnsupportedKind)

	_, err = Encode(&Post{})
	require.ErrorIs(t, err, ErrUnsupportedKind)
}

type testNote struct {
	Header

	Body string `json:"body"`
}

func TestRegister(t *testing.T) {
	t.Parallel()

	const kind Kind = 30000
	ctor := func() Document { return &testNote{} }
	require.NoError(t, Register(kind, ctor))
	require.ErrorIs(t, Register(kind, ctor), ErrKindRegistered)

	b, err := Encode(&testNote{Header: Header{Kind: kind}, Body: "x"})
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, "x", got.(*testNote).Body)
}

func TestRuntimeFieldsNotSerialized(t *testing.T) {
	t.Parallel()

	post := NewPost()
	evt := &nostr.Event{CreatedAt: 1700000000}
	post.Bind(testOrigin("tag"), evt, 42, true)

	require.Equal(t, uint32(42), post.DocIndex())
	require.True(t, post.Verified())
	require.Equal(t, nostr.Timestamp(1700000000), post.CreatedAt())
	require.Equal(t, "tag", post.Origin().EventTag())

	b, err := Encode(post)
	require.NoError(t, err)
	got, err := Decode(b)
	require.NoError(t, err)

	require.Zero(t, got.Meta().DocIndex())
	require.False(t, got.Meta().Verified())
	require.Nil(t, got.Meta().Event())
}

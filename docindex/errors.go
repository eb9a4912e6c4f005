package docindex

import "errors"

var (
	// ErrContradictoryType is returned for flags that name more than one
	// primary mode.
	ErrContradictoryType = errors.New("index type combines incompatible " +
		"modes")

	// ErrMissingPrimaryType is returned when none of Sequential,
	// TimeBased and Singleton is set.
	ErrMissingPrimaryType = errors.New("index type must be Sequential, " +
		"TimeBased or Singleton")

	// ErrPrivateKeyRequired is returned when an operation needs a private
	// scalar the index does not hold.
	ErrPrivateKeyRequired = errors.New("private key required")

	// ErrWordsetRequired is returned when a Private index is built
	// without a wordset or pre-derived pages.
	ErrWordsetRequired = errors.New("wordset required for a private index")

	// ErrDocIndexRequired is returned when a Sequential document has no
	// index.
	ErrDocIndexRequired = errors.New("docIndex is required on a " +
		"sequential index")

	// ErrExternalKeyRequired is returned when a non-private index creates
	// an event without a signer.
	ErrExternalKeyRequired = errors.New("a signing key is required to " +
		"create events on a non-private index")

	// ErrNilEvent is returned when asked to read a missing event.
	ErrNilEvent = errors.New("event is nil")

	// ErrUnexpectedKind is returned when reading an event of a kind the
	// index does not write.
	ErrUnexpectedKind = errors.New("unexpected event kind")

	// ErrBadSignature is returned when an event signature does not
	// verify.
	ErrBadSignature = errors.New("event signature is invalid")

	// ErrNotPublished is returned when deleting a document that has no
	// event.
	ErrNotPublished = errors.New("document has no event")

	// ErrIncompletePointer is returned when a pointer lacks the keys an
	// index needs.
	ErrIncompletePointer = errors.New("pointer lacks signing or " +
		"encryption key")
)

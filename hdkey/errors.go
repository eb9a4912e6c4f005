package hdkey

import "errors"

var (
	// ErrDeriveHardFromPublic is returned when a hardened child is
	// requested from a key that only holds a public point.
	ErrDeriveHardFromPublic = errors.New("cannot derive a hardened key " +
		"from a public key")

	// ErrDeriveBeyondMaxDepth is returned when a derivation would push the
	// depth past what the serialization format can express.
	ErrDeriveBeyondMaxDepth = errors.New("cannot derive a key with more " +
		"than 255 indices in its path")

	// ErrInvalidIndex is returned when a child index is not below the
	// hardened key offset.
	ErrInvalidIndex = errors.New("child index must be below 2^31")

	// ErrNoChainCode is returned when a derivation is attempted on a key
	// that was rehydrated without a chain code.
	ErrNoChainCode = errors.New("key has no chain code")

	// ErrNotPrivate is returned when an operation needs the private
	// scalar of a public-only key.
	ErrNotPrivate = errors.New("key has no private scalar")

	// ErrInvalidPath is returned when a derivation path cannot be parsed.
	ErrInvalidPath = errors.New("invalid child key derivation path")

	// ErrBadChecksum is returned when the checksum of a serialized
	// extended key does not match.
	ErrBadChecksum = errors.New("bad extended key checksum")

	// ErrInvalidKeyLen is returned when a serialized extended key has a
	// length that matches no known profile.
	ErrInvalidKeyLen = errors.New("the provided serialized extended key " +
		"length is invalid")

	// ErrMalformedMaster is returned when a serialized depth zero key
	// carries a parent fingerprint or a child index.
	ErrMalformedMaster = errors.New("depth zero key must have no parent " +
		"and index zero")

	// ErrUnknownVersion is returned when the version prefix of a
	// serialized key is not registered.
	ErrUnknownVersion = errors.New("unknown extended key version")

	// ErrVersionMismatch is returned when the version prefix contradicts
	// the key material, e.g. a public prefix in front of a private scalar.
	ErrVersionMismatch = errors.New("extended key version does not match " +
		"its key data")

	// ErrInvalidHashLen is returned when a message digest is not 32 bytes.
	ErrInvalidHashLen = errors.New("hash must be 32 bytes")

	// ErrInvalidSigLen is returned when a signature is not 64 bytes.
	ErrInvalidSigLen = errors.New("signature must be 64 bytes")

	// ErrInvalidSeedLen is returned for an empty master seed.
	ErrInvalidSeedLen = errors.New("master seed must not be empty")

	// ErrUnusableSeed is returned in the astronomically unlikely case that
	// a seed maps to a scalar outside the curve order.
	ErrUnusableSeed = errors.New("seed produces an unusable master key")

	// errInvalidChild marks a derived scalar or point which is unusable.
	// It never escapes this package: the caller retries with the next
	// index.
	errInvalidChild = errors.New("the extended key at this index is " +
		"invalid")
)

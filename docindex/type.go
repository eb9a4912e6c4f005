package docindex

import "strings"

// Type is the addressing mode of an index. Exactly one of Sequential,
// TimeBased and Singleton must be set. Private may be combined with
// Sequential or TimeBased.
type Type uint8

const (
	// Private derives every document key through a wordset fold so that
	// only holders of the wordset can locate documents.
	Private Type = 1 << iota

	// Sequential addresses documents by an explicit index.
	Sequential

	// TimeBased addresses documents by their creation time.
	TimeBased

	// Singleton addresses one fixed document whose keys are the parents
	// themselves.
	Singleton
)

// IsPrivate reports whether the Private modifier is set.
func (t Type) IsPrivate() bool {
	return t&Private != 0
}

// IsSequential reports whether the index is Sequential.
func (t Type) IsSequential() bool {
	return t&Sequential != 0
}

// IsTimeBased reports whether the index is TimeBased.
func (t Type) IsTimeBased() bool {
	return t&TimeBased != 0
}

// IsSingleton reports whether the index is a Singleton.
func (t Type) IsSingleton() bool {
	return t&Singleton != 0
}

// Validate checks that the flags name exactly one primary mode.
func (t Type) Validate() error {
	var primaries int
	for _, f := range []Type{Sequential, TimeBased, Singleton} {
		if t&f != 0 {
			primaries++
		}
	}

	switch {
	case primaries == 0:
		return ErrMissingPrimaryType
	case primaries > 1:
		return ErrContradictoryType
	case t.IsPrivate() && t.IsSingleton():
		return ErrContradictoryType
	case t&^(Private|Sequential|TimeBased|Singleton) != 0:
		return ErrContradictoryType
	}

	return nil
}

// String returns the flags joined by a pipe.
func (t Type) String() string {
	var parts []string
	if t.IsPrivate() {
		parts = append(parts, "Private")
	}
	if t.IsSequential() {
		parts = append(parts, "Sequential")
	}
	if t.IsTimeBased() {
		parts = append(parts, "TimeBased")
	}
	if t.IsSingleton() {
		parts = append(parts, "Singleton")
	}
	if len(parts) == 0 {
		return "None"
	}

	return strings.Join(parts, "|")
}

package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnsupportedKind is returned when a payload carries a kind with no
	// registered constructor.
	ErrUnsupportedKind = errors.New("unsupported document kind")

	// ErrKindRegistered is returned when registering a kind twice.
	ErrKindRegistered = errors.New("document kind already registered")
)

// Constructor returns a fresh document ready to be unmarshaled into.
type Constructor func() Document

var (
	registryMtx sync.RWMutex
	registry    = map[Kind]Constructor{
		KindText:            func() Document { return NewPost() },
		KindReaction:        func() Document { return NewPost() },
		KindContacts:        func() Document { return NewFollow() },
		KindChannelMetadata: func() Document { return NewChannel() },
		KindInvitation:      func() Document { return NewInvitation() },
		KindRsvp:            func() Document { return NewRsvp() },
	}
)

// Register adds a payload type for kind.
func Register(kind Kind, ctor Constructor) error {
	registryMtx.Lock()
	defer registryMtx.Unlock()

	if _, ok := registry[kind]; ok {
		return fmt.Errorf("%w: %d", ErrKindRegistered, kind)
	}
	registry[kind] = ctor

	return nil
}

// Encode serializes the document.
func Encode(doc Document) ([]byte, error) {
	if doc.Meta().Kind == 0 {
		return nil, fmt.Errorf("%w: kind not set", ErrUnsupportedKind)
	}

	return json.Marshal(doc)
}

// Decode reads the kind of the payload and unmarshals the rest into the
// registered type.
func Decode(b []byte) (Document, error) {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("unable to read document kind: %w", err)
	}

	registryMtx.RLock()
	ctor, ok := registry[head.Kind]
	registryMtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, head.Kind)
	}

	doc := ctor()
	if err := json.Unmarshal(b, doc); err != nil {
		return nil, fmt.Errorf("unable to decode kind %d: %w",
			head.Kind, err)
	}
	log.Tracef("Decoded document of kind %d", head.Kind)

	return doc, nil
}

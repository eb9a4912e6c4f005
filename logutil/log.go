package logutil

import (
	"log/slog"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btclog/v2"
	"github.com/davecgh/go-spew/spew"
)

// LogClosure defers an expensive string computation until the logger decides
// the message is actually emitted.
type LogClosure func() string

// String invokes the underlying function and returns the result.
func (c LogClosure) String() string {
	return c()
}

// NewLogClosure wraps c so that it satisfies fmt.Stringer.
func NewLogClosure(c func() string) LogClosure {
	return LogClosure(c)
}

// SpewLogClosure dumps a with spew once the closure is rendered.
func SpewLogClosure(a any) LogClosure {
	return func() string {
		return spew.Sdump(a)
	}
}

// PubKey returns an attribute holding the short hex form of a compressed
// public key.
func PubKey(key string, pubKey *btcec.PublicKey) slog.Attr {
	if pubKey == nil {
		return btclog.Fmt(key, "<nil>")
	}

	return btclog.Hex6(key, pubKey.SerializeCompressed())
}

// Hex returns an attribute holding the short hex form of b.
func Hex(key string, b []byte) slog.Attr {
	return btclog.Hex6(key, b)
}

// Short truncates an identifier such as an event id for log output.
func Short(key, id string) slog.Attr {
	if len(id) > 12 {
		id = id[:12]
	}

	return slog.String(key, id)
}

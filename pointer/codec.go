package pointer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/animiq/nip76/envelope"
	"github.com/animiq/nip76/logutil"
	"github.com/animiq/nip76/monitoring"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/lightningnetwork/lnd/tlv"
)

// relayType is the record type of a relay URL in the trailing record block.
const relayType = 0

// Encode seals the pointer under the secret and returns a bech32 token.
func Encode(p *Pointer, s Secret) (string, error) {
	flags := p.Flags()
	if flags&presenceMask == 0 {
		return "", ErrEmptyPointer
	}

	var (
		prefix bytes.Buffer
		key    []byte
	)
	switch secret := s.(type) {
	case Password:
		prefix.WriteByte(byte(flags))
		key = secret.key()

	case *SharedSecret:
		var err error
		key, err = secret.key(secret.Peer)
		if err != nil {
			return "", err
		}
		prefix.WriteByte(byte(flags | SharedSecretMode))
		prefix.Write(secret.Private.PubKey().SerializeCompressed())

	default:
		return "", fmt.Errorf("%w: %T", ErrSecretMode, s)
	}

	body, err := encodeBody(p, flags)
	if err != nil {
		return "", err
	}

	c, err := envelope.New(key)
	if err != nil {
		return "", err
	}
	sealed, err := c.Seal(body)
	if err != nil {
		return "", err
	}

	token, err := bech32Encode(ChannelHRP, append(prefix.Bytes(), sealed...))
	if err != nil {
		return "", err
	}
	if len(token) > MaxTokenLen {
		return "", ErrTokenTooLong
	}

	monitoring.IncrementPointersEncoded()
	log.Debugf("Encoded %v", p)

	return token, nil
}

// encodeBody writes the flagged fields in their fixed order followed by the
// relay records. The docIndex takes 4 big-endian bytes since time based
// indexes reach 2^31.
func encodeBody(p *Pointer, flags Flag) ([]byte, error) {
	var b bytes.Buffer
	p.DocIndex.WhenSome(func(i uint32) {
		var idx [4]byte
		binary.BigEndian.PutUint32(idx[:], i)
		b.Write(idx[:])
	})

	switch {
	case flags&PrivateSigningKey != 0:
		scalar := p.SigningPrivKey.Key.Bytes()
		b.Write(scalar[:])
	case flags&HasSigningKey != 0:
		b.Write(p.SigningKey.SerializeCompressed())
	}
	if flags&HasEncryptKey != 0 {
		b.Write(p.EncryptKey.SerializeCompressed())
	}
	if flags&HasSigningChain != 0 {
		if len(p.SigningChain) != chainCodeLen {
			return nil, fmt.Errorf("signing chain must be %d bytes",
				chainCodeLen)
		}
		b.Write(p.SigningChain)
	}
	if flags&HasEncryptChain != 0 {
		if len(p.EncryptChain) != chainCodeLen {
			return nil, fmt.Errorf("encrypt chain must be %d bytes",
				chainCodeLen)
		}
		b.Write(p.EncryptChain)
	}

	var buf [8]byte
	for _, relay := range p.Relays {
		if err := tlv.WriteVarInt(&b, relayType, &buf); err != nil {
			return nil, err
		}
		err := tlv.WriteVarInt(&b, uint64(len(relay)), &buf)
		if err != nil {
			return nil, err
		}
		b.WriteString(relay)
	}

	return b.Bytes(), nil
}

// Decode opens a token with the secret. Canonical channel tokens and older
// thread tokens are both accepted.
func Decode(token string, s Secret) (*Pointer, error) {
	if len(token) > MaxTokenLen {
		return nil, ErrTokenTooLong
	}

	hrp, data, err := bech32Decode(token)
	if err != nil {
		return nil, err
	}

	var p *Pointer
	switch hrp {
	case ChannelHRP:
		p, err = decodeChannel(data, s)
	case ThreadHRP:
		p, err = decodeThread(data, s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPrefix, hrp)
	}
	if err != nil {
		return nil, err
	}

	monitoring.IncrementPointersDecoded()
	log.Debugf("Decoded %v from %s token", p, hrp)
	log.Tracef("Pointer relays: %v", logutil.SpewLogClosure(p.Relays))

	return p, nil
}

func decodeChannel(data []byte, s Secret) (*Pointer, error) {
	if len(data) < 1 {
		return nil, ErrTruncated
	}
	flags := Flag(data[0])
	rest := data[1:]

	p := &Pointer{}
	var key []byte
	switch secret := s.(type) {
	case Password:
		if flags&SharedSecretMode != 0 {
			return nil, fmt.Errorf("%w: token needs a shared secret",
				ErrSecretMode)
		}
		key = secret.key()

	case *SharedSecret:
		if flags&SharedSecretMode == 0 {
			return nil, fmt.Errorf("%w: token needs a password",
				ErrSecretMode)
		}
		if len(rest) < btcec.PubKeyBytesLenCompressed {
			return nil, ErrTruncated
		}
		sender, err := btcec.ParsePubKey(
			rest[:btcec.PubKeyBytesLenCompressed],
		)
		if err != nil {
			return nil, fmt.Errorf("invalid sender key: %w", err)
		}
		rest = rest[btcec.PubKeyBytesLenCompressed:]

		key, err = secret.key(sender)
		if err != nil {
			return nil, err
		}
		p.Sender = sender

	default:
		return nil, fmt.Errorf("%w: %T", ErrSecretMode, s)
	}

	body, err := open(key, rest, false)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(body)
	if flags&HasDocIndex != 0 {
		var idx [4]byte
		if _, err := io.ReadFull(r, idx[:]); err != nil {
			return nil, ErrTruncated
		}
		p.DocIndex = fn.Some(binary.BigEndian.Uint32(idx[:]))
	}

	switch {
	case flags&PrivateSigningKey != 0:
		scalar, err := readN(r, btcec.PrivKeyBytesLen)
		if err != nil {
			return nil, err
		}
		p.SigningPrivKey, _ = btcec.PrivKeyFromBytes(scalar)

	case flags&HasSigningKey != 0:
		p.SigningKey, err = readPubKey(r)
		if err != nil {
			return nil, err
		}
	}
	if flags&HasEncryptKey != 0 {
		p.EncryptKey, err = readPubKey(r)
		if err != nil {
			return nil, err
		}
	}
	if flags&HasSigningChain != 0 {
		p.SigningChain, err = readN(r, chainCodeLen)
		if err != nil {
			return nil, err
		}
	}
	if flags&HasEncryptChain != 0 {
		p.EncryptChain, err = readN(r, chainCodeLen)
		if err != nil {
			return nil, err
		}
	}

	p.Relays = readRelays(r)

	return p, nil
}

// decodeThread reads the fixed layout of older thread tokens:
// owner (32) || signing key (33) || signing chain (32) ||
// encrypt key (33) || encrypt chain (32) || relays, sealed as
// tag || iv || ciphertext and without a cleartext prefix.
func decodeThread(data []byte, s Secret) (*Pointer, error) {
	var (
		key []byte
		err error
	)
	switch secret := s.(type) {
	case Password:
		key = secret.key()
	case *SharedSecret:
		key, err = secret.key(secret.Peer)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrSecretMode, s)
	}

	body, err := open(key, data, true)
	if err != nil {
		return nil, err
	}

	const fixedLen = 32 + 33 + 32 + 33 + 32
	if len(body) < fixedLen {
		return nil, ErrTruncated
	}

	p := &Pointer{}
	r := bytes.NewReader(body)
	owner, _ := readN(r, 32)
	p.Owner = fmt.Sprintf("%x", owner)

	if p.SigningKey, err = readPubKey(r); err != nil {
		return nil, err
	}
	p.SigningChain, _ = readN(r, chainCodeLen)
	if p.EncryptKey, err = readPubKey(r); err != nil {
		return nil, err
	}
	p.EncryptChain, _ = readN(r, chainCodeLen)

	p.Relays = readShortRelays(body[fixedLen:])

	return p, nil
}

func open(key, sealed []byte, tagFirst bool) ([]byte, error) {
	c, err := envelope.New(key)
	if err != nil {
		return nil, err
	}

	var body []byte
	if tagFirst {
		body, err = c.OpenTagFirst(sealed)
	} else {
		body, err = c.Open(sealed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryption, err)
	}

	return body, nil
}

func readN(r *bytes.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, ErrTruncated
	}

	return b, nil
}

func readPubKey(r *bytes.Reader) (*btcec.PublicKey, error) {
	b, err := readN(r, btcec.PubKeyBytesLenCompressed)
	if err != nil {
		return nil, err
	}

	return btcec.ParsePubKey(b)
}

// readRelays reads varint type/length relay records until the data runs
// out. A record whose length overruns the data is dropped along with
// anything after it, records of other types are skipped.
func readRelays(r *bytes.Reader) []string {
	var (
		relays []string
		buf    [8]byte
	)
	for r.Len() > 0 {
		typ, err := tlv.ReadVarInt(r, &buf)
		if err != nil {
			break
		}
		length, err := tlv.ReadVarInt(r, &buf)
		if err != nil {
			break
		}
		if length > uint64(r.Len()) {
			log.Debugf("Skipping relay record of length %d with "+
				"%d bytes left", length, r.Len())
			break
		}

		value := make([]byte, length)
		_, _ = io.ReadFull(r, value)
		if typ == relayType {
			relays = append(relays, string(value))
		}
	}

	return relays
}

// readShortRelays reads the single byte type/length records of thread
// tokens.
func readShortRelays(b []byte) []string {
	var relays []string
	for len(b) >= 2 {
		typ, length := b[0], int(b[1])
		b = b[2:]
		if length > len(b) {
			break
		}
		if typ == relayType {
			relays = append(relays, string(b[:length]))
		}
		b = b[length:]
	}

	return relays
}

func bech32Encode(hrp string, payload []byte) (string, error) {
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}

	return bech32.Encode(hrp, conv)
}

func bech32Decode(token string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(strings.TrimSpace(token))
	if err != nil {
		return "", nil, fmt.Errorf("invalid pointer token: %w", err)
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, fmt.Errorf("invalid pointer token: %w", err)
	}

	return hrp, payload, nil
}

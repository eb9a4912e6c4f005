package wallet

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/animiq/nip76/envelope"
	"github.com/animiq/nip76/hdkey"
	"github.com/animiq/nip76/kvstore"
	"github.com/animiq/nip76/logutil"
	"github.com/animiq/nip76/nipcfg"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/lightningnetwork/lnd/tlv"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLen     = 64
	checksumLen = 16

	// SessionSecretLen is the length of a random session secret.
	SessionSecretLen = 32
)

// Record types of the encrypted backup payload.
const (
	typeChainCode tlv.Type = 0
	typePrivKey   tlv.Type = 1
	typeLocknums  tlv.Type = 2
)

// Kind selects where a backup is stored and how its secret is read.
type Kind uint8

const (
	// Backup is the long lived copy, sealed under a user password and
	// without locknums so the lockword is needed to restore it.
	Backup Kind = iota

	// Session is a short lived copy sealed under a random base64
	// secret. It carries the locknums.
	Session
)

// storeKey returns the key the kind is persisted under.
func (k Kind) storeKey() string {
	if k == Session {
		return "session"
	}

	return "backup"
}

// String returns the name of the kind.
func (k Kind) String() string {
	return k.storeKey()
}

// secretBytes decodes a secret according to the kind.
func (k Kind) secretBytes(secret string) ([]byte, error) {
	if k != Session {
		return []byte(secret), nil
	}

	b, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("session secret must be base64: %w", err)
	}

	return b, nil
}

// NewSessionSecret returns a random base64 secret for a Session save.
func NewSessionSecret() (string, error) {
	b := make([]byte, SessionSecretLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func stretch(secret, salt []byte, iterations int) []byte {
	return pbkdf2.Key(secret, salt, iterations, envelope.KeySize, sha512.New)
}

// checksum commits to the profile root so that a wrong lockword is detected
// after decryption.
func checksum(ppRoot *hdkey.HDKey) []byte {
	return chainhash.DoubleHashB(ppRoot.PubKeyBytes())[:checksumLen]
}

func (w *Wallet) encodePayload(withLocknums bool) ([]byte, error) {
	var chainCode, scalar [32]byte
	copy(chainCode[:], w.master.ChainCode())
	scalar = w.master.PrivateKey().Key.Bytes()

	records := []tlv.Record{
		tlv.MakePrimitiveRecord(typeChainCode, &chainCode),
		tlv.MakePrimitiveRecord(typePrivKey, &scalar),
	}

	var nums []byte
	if withLocknums {
		nums = make([]byte, 4*LocknumCount)
		for i, n := range w.locknums {
			binary.BigEndian.PutUint32(nums[i*4:], n)
		}
		records = append(
			records, tlv.MakePrimitiveRecord(typeLocknums, &nums),
		)
	}

	stream, err := tlv.NewStream(records...)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := stream.Encode(&b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Save seals the master key under secret and stores it under the kind's
// key. Sessions include the locknums, backups do not.
func (w *Wallet) Save(ctx context.Context, secret string, kind Kind) error {
	secretKey, err := kind.secretBytes(secret)
	if err != nil {
		return err
	}

	payload, err := w.encodePayload(kind == Session)
	if err != nil {
		return err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return err
	}

	c, err := envelope.New(
		stretch(secretKey, salt, w.cfg.PBKDF2Iterations),
	)
	if err != nil {
		return err
	}
	sealed, err := c.Seal(payload)
	if err != nil {
		return err
	}

	var blob bytes.Buffer
	blob.Write(salt)
	blob.Write(checksum(w.ppRoot))
	blob.Write(sealed)

	stored := base64.StdEncoding.EncodeToString(blob.Bytes())
	if err := w.store.Put(ctx, kind.storeKey(), []byte(stored)); err != nil {
		return err
	}

	log.InfoS(ctx, "Saved wallet", "kind", kind,
		logutil.PubKey("profile_root", w.ppRoot.PublicKey()))

	return nil
}

// ClearSession removes the stored session.
func (w *Wallet) ClearSession(ctx context.Context) error {
	return w.store.Delete(ctx, Session.storeKey())
}

type payload struct {
	chainCode [32]byte
	scalar    [32]byte
	locknums  []uint32
}

func decodePayload(b []byte) (*payload, error) {
	var (
		p    payload
		nums []byte
	)
	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(typeChainCode, &p.chainCode),
		tlv.MakePrimitiveRecord(typePrivKey, &p.scalar),
		tlv.MakePrimitiveRecord(typeLocknums, &nums),
	)
	if err != nil {
		return nil, err
	}

	parsed, err := stream.DecodeWithParsedTypes(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBackup, err)
	}
	if _, ok := parsed[typePrivKey]; !ok {
		return nil, fmt.Errorf("%w: no private key", ErrMalformedBackup)
	}

	if _, ok := parsed[typeLocknums]; ok {
		if len(nums) != 4*LocknumCount {
			return nil, fmt.Errorf("%w: %d locknum bytes",
				ErrMalformedBackup, len(nums))
		}
		p.locknums = make([]uint32, LocknumCount)
		for i := range p.locknums {
			p.locknums[i] = binary.BigEndian.Uint32(nums[i*4:])
		}
	}

	return &p, nil
}

// Load opens the wallet stored under the kind's key. Without a lockword the
// locknums stored in a session are used.
func Load(ctx context.Context, secret string, kind Kind,
	lockword fn.Option[string], store kvstore.Store,
	cfg *nipcfg.Wallet) (*Wallet, error) {

	secretKey, err := kind.secretBytes(secret)
	if err != nil {
		return nil, err
	}

	stored, err := store.Get(ctx, kind.storeKey())
	if err != nil {
		return nil, err
	}
	blob, err := base64.StdEncoding.DecodeString(string(stored))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBackup, err)
	}
	if len(blob) < saltLen+checksumLen+envelope.Overhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedBackup,
			len(blob))
	}
	salt := blob[:saltLen]
	sum := blob[saltLen : saltLen+checksumLen]

	c, err := envelope.New(stretch(secretKey, salt, cfg.PBKDF2Iterations))
	if err != nil {
		return nil, err
	}
	plain, err := c.Open(blob[saltLen+checksumLen:])
	if err != nil {
		var decErr *envelope.DecryptionError
		if errors.As(err, &decErr) {
			return nil, fmt.Errorf("%w: %w", ErrWrongSecret, err)
		}

		return nil, err
	}

	p, err := decodePayload(plain)
	if err != nil {
		return nil, err
	}

	v, err := hdkey.VersionByName(cfg.Version)
	if err != nil {
		return nil, err
	}
	priv, _ := btcec.PrivKeyFromBytes(p.scalar[:])
	master := hdkey.NewKeyFromPrivate(priv, p.chainCode[:], v)

	if lockword.IsNone() && p.locknums == nil {
		return nil, ErrNoLockword
	}
	w, err := newWallet(master, lockword, p.locknums, store, cfg)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(sum, checksum(w.ppRoot)) {
		return nil, ErrWrongLockword
	}

	log.InfoS(ctx, "Loaded wallet", "kind", kind,
		logutil.Hex("fingerprint", master.Fingerprint()))

	return w, nil
}

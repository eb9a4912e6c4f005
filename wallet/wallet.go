package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/animiq/nip76/docindex"
	"github.com/animiq/nip76/hdkey"
	"github.com/animiq/nip76/kvstore"
	"github.com/animiq/nip76/nipcfg"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// LocknumCount is the number of indexes derived from a lockword.
	LocknumCount = 20

	// seedLen is the length of freshly generated master seeds.
	seedLen = 64

	// channelBranch is the hardened child under a profile's keys that
	// channel parents are derived from.
	channelBranch = 1001

	// channelListWord seeds the wordset of a profile's channel list.
	channelListWord = "channels"
)

// rootPath is the fixed prefix of every wallet key.
var rootPath = []hdkey.PathElement{
	{Index: 1776, Hardened: true},
	{Index: 7, Hardened: true},
	{Index: 4, Hardened: true},
}

var (
	// ErrNoLockword is returned when loading a backup that holds no
	// locknums without supplying the lockword.
	ErrNoLockword = errors.New("backup has no locknums, lockword " +
		"required")

	// ErrWrongSecret is returned when a backup cannot be decrypted.
	ErrWrongSecret = errors.New("unable to decrypt backup")

	// ErrWrongLockword is returned when the decrypted master key does not
	// lead to the profile root recorded in the backup.
	ErrWrongLockword = errors.New("lockword does not match backup")

	// ErrMalformedBackup is returned for backups that fail to parse.
	ErrMalformedBackup = errors.New("malformed backup")
)

// Profile holds the three keys of one identity: the profile key, the
// signing key and the encryption key. Channel keys are derived from the
// last two.
type Profile struct {
	Index   uint32
	Key     *hdkey.HDKey
	Signing *hdkey.HDKey
	Encrypt *hdkey.HDKey
}

// Wallet derives profiles and channels from one master key. The locknums,
// computed from a lockword, pick the hardened path to every profile so the
// master key alone does not reveal them.
type Wallet struct {
	cfg   *nipcfg.Wallet
	store kvstore.Store

	master   *hdkey.HDKey
	locknums [LocknumCount]uint32

	ppRoot *hdkey.HDKey
	apRoot *hdkey.HDKey
	spRoot *hdkey.HDKey

	profilesMtx sync.Mutex
	profiles    map[uint32]*Profile
}

// New returns a wallet for the master seed.
func New(seed []byte, lockword string, store kvstore.Store,
	cfg *nipcfg.Wallet) (*Wallet, error) {

	v, err := hdkey.VersionByName(cfg.Version)
	if err != nil {
		return nil, err
	}
	master, err := hdkey.ParseMasterSeed(seed, v)
	if err != nil {
		return nil, err
	}

	return newWallet(master, fn.Some(lockword), nil, store, cfg)
}

// Generate returns a wallet over a fresh random seed.
func Generate(lockword string, store kvstore.Store,
	cfg *nipcfg.Wallet) (*Wallet, error) {

	seed := make([]byte, seedLen)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}

	return New(seed, lockword, store, cfg)
}

// Restore returns a wallet for an extended private master key.
func Restore(xprv, lockword string, store kvstore.Store,
	cfg *nipcfg.Wallet) (*Wallet, error) {

	master, err := hdkey.ParseExtendedKey(xprv)
	if err != nil {
		return nil, err
	}
	if !master.IsPrivate() {
		return nil, hdkey.ErrNotPrivate
	}

	return newWallet(master, fn.Some(lockword), nil, store, cfg)
}

// newWallet derives the profile roots from either a lockword or locknums
// read from a backup.
func newWallet(master *hdkey.HDKey, lockword fn.Option[string],
	locknums []uint32, store kvstore.Store,
	cfg *nipcfg.Wallet) (*Wallet, error) {

	w := &Wallet{
		cfg:      cfg,
		store:    store,
		master:   master,
		profiles: make(map[uint32]*Profile),
	}

	switch {
	case lockword.IsSome():
		nums, err := master.CreateIndexesFromWord(
			lockword.UnsafeFromSome(), 16,
		)
		if err != nil {
			return nil, err
		}
		copy(w.locknums[:], nums)

	case len(locknums) == LocknumCount:
		copy(w.locknums[:], locknums)

	default:
		return nil, ErrNoLockword
	}

	if err := w.deriveRoots(); err != nil {
		return nil, err
	}

	log.Debugf("Opened wallet %x under %s", master.Fingerprint(),
		hdkey.FormatPath(rootPath))

	return w, nil
}

// lockPath returns the four hardened levels picked by the locknums at the
// given positions.
func (w *Wallet) lockPath(a, b, c, d int) []hdkey.PathElement {
	return []hdkey.PathElement{
		{Index: w.locknums[a], Hardened: true},
		{Index: w.locknums[b], Hardened: true},
		{Index: w.locknums[c], Hardened: true},
		{Index: w.locknums[d], Hardened: true},
	}
}

func (w *Wallet) deriveRoots() error {
	base, err := w.master.DerivePath(rootPath)
	if err != nil {
		return err
	}
	aqRoot, err := base.DerivePath(w.lockPath(19, 15, 11, 7))
	if err != nil {
		return err
	}

	roots := []struct {
		dst  **hdkey.HDKey
		path []hdkey.PathElement
	}{
		{&w.ppRoot, w.lockPath(18, 14, 10, 6)},
		{&w.apRoot, w.lockPath(17, 13, 9, 5)},
		{&w.spRoot, w.lockPath(16, 12, 8, 4)},
	}
	for _, r := range roots {
		*r.dst, err = aqRoot.DerivePath(r.path)
		if err != nil {
			return err
		}
	}

	return nil
}

// Master returns the master key.
func (w *Wallet) Master() *hdkey.HDKey {
	return w.master
}

// profileOffset spreads profile n along a root by a locknum.
func profileOffset(n, locknum uint32) uint32 {
	offset := (uint64(n) + 1) * uint64(locknum)

	return uint32(offset % hdkey.HardenedKeyStart)
}

// Profile returns the keys of profile n, deriving them on first use.
func (w *Wallet) Profile(n uint32) (*Profile, error) {
	w.profilesMtx.Lock()
	defer w.profilesMtx.Unlock()

	if p, ok := w.profiles[n]; ok {
		return p, nil
	}

	pp, err := w.ppRoot.DeriveChildKey(
		profileOffset(n, w.locknums[3]), true,
	)
	if err != nil {
		return nil, err
	}
	ap, err := w.apRoot.DeriveChildKey(
		profileOffset(n, w.locknums[2]), true,
	)
	if err != nil {
		return nil, err
	}
	sp, err := w.spRoot.DeriveChildKey(
		profileOffset(n, w.locknums[1]), true,
	)
	if err != nil {
		return nil, err
	}

	p := &Profile{Index: n, Key: pp, Signing: ap, Encrypt: sp}
	w.profiles[n] = p

	log.Tracef("Derived profile %d", n)

	return p, nil
}

// ChannelListIndex returns the private sequential index a profile lists its
// channels in.
func (w *Wallet) ChannelListIndex(n uint32,
	opts ...docindex.Option) (*docindex.Index, error) {

	p, err := w.Profile(n)
	if err != nil {
		return nil, err
	}
	ws, err := hdkey.NewWordset(p.Key, channelListWord)
	if err != nil {
		return nil, err
	}

	opts = append([]docindex.Option{docindex.WithWordset(ws)}, opts...)

	return docindex.New(
		docindex.Private|docindex.Sequential, p.Signing, p.Encrypt,
		opts...,
	)
}

// Channel returns the time based index of channel docIndex owned by
// profile n.
func (w *Wallet) Channel(n, docIndex uint32,
	opts ...docindex.Option) (*docindex.Index, error) {

	if docIndex >= hdkey.HardenedKeyStart {
		return nil, fmt.Errorf("%w: %d", hdkey.ErrInvalidIndex, docIndex)
	}

	p, err := w.Profile(n)
	if err != nil {
		return nil, err
	}

	path := []hdkey.PathElement{
		{Index: channelBranch, Hardened: true},
		{Index: docIndex, Hardened: true},
	}
	signing, err := p.Signing.DerivePath(path)
	if err != nil {
		return nil, err
	}
	encrypt, err := p.Encrypt.DerivePath(path)
	if err != nil {
		return nil, err
	}

	return docindex.New(docindex.TimeBased, signing, encrypt, opts...)
}

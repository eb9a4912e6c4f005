package hdkey

import "fmt"

// Version is a serialization profile for extended keys. The profile is fixed
// for the lifetime of a key and inherited by all of its children.
type Version struct {
	// Name is a human readable identifier.
	Name string

	// Public is the 4 byte prefix of serialized public keys.
	Public uint32

	// Private is the 4 byte prefix of serialized private keys.
	Private uint32

	// NetworkID is the network discriminant byte.
	NetworkID byte

	// Compact drops depth, parent fingerprint and child index from the
	// serialized form. The shorter token no longer reveals where in a
	// tree the key sits.
	Compact bool
}

// String returns the profile name.
func (v *Version) String() string {
	return v.Name
}

var (
	// BitcoinMain is the BIP32 mainnet profile (xprv/xpub).
	BitcoinMain = &Version{
		Name:    "bitcoinMain",
		Public:  0x0488b21e,
		Private: 0x0488ade4,
	}

	// BitcoinTest is the BIP32 testnet profile (tprv/tpub).
	BitcoinTest = &Version{
		Name:      "bitcoinTest",
		Public:    0x043587cf,
		Private:   0x04358394,
		NetworkID: 0x6f,
	}

	// AnimiqAPI2 is a full length application profile.
	AnimiqAPI2 = &Version{
		Name:    "animiqAPI2",
		Public:  0x02bf4968,
		Private: 0x02bf452d,
	}

	// AnimiqAPI3 is the compact application profile (aprv/apub).
	AnimiqAPI3 = &Version{
		Name:    "animiqAPI3",
		Public:  0x08f3b11b,
		Private: 0x08f3a350,
		Compact: true,
	}

	// Nip76API1 is the compact profile used for keys carried in channel
	// pointers.
	Nip76API1 = &Version{
		Name:    "nip76API1",
		Public:  0x0a3f5c21,
		Private: 0x0a3f4e57,
		Compact: true,
	}
)

// versions are the profiles ParseExtendedKey recognizes.
var versions = []*Version{
	BitcoinMain, BitcoinTest, AnimiqAPI2, AnimiqAPI3, Nip76API1,
}

// VersionByName returns the known profile with the given name.
func VersionByName(name string) (*Version, error) {
	for _, v := range versions {
		if v.Name == name {
			return v, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, name)
}

// lookupVersion finds the profile owning the prefix. The bool reports whether
// the prefix is the private one.
func lookupVersion(prefix uint32, compact bool) (*Version, bool, error) {
	for _, v := range versions {
		if v.Compact != compact {
			continue
		}
		switch prefix {
		case v.Private:
			return v, true, nil
		case v.Public:
			return v, false, nil
		}
	}

	return nil, false, fmt.Errorf("%w: %#08x", ErrUnknownVersion, prefix)
}

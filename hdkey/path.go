package hdkey

import (
	"fmt"
	"strconv"
	"strings"
)

// PathElement is a single step of a derivation path.
type PathElement struct {
	Index    uint32
	Hardened bool
}

// String renders the element using the apostrophe notation.
func (e PathElement) String() string {
	if e.Hardened {
		return fmt.Sprintf("%d'", e.Index)
	}

	return strconv.FormatUint(uint64(e.Index), 10)
}

// ParsePath parses a path of the form m/44'/0'/1. The leading m, optionally
// with an apostrophe, denotes the starting node and is case insensitive. An
// empty string or a bare m yields an empty path. A trailing h is accepted as
// an alternative hardened marker.
func ParsePath(path string) ([]PathElement, error) {
	p := strings.ToLower(strings.TrimSpace(path))
	if p == "" {
		return nil, nil
	}

	segments := strings.Split(p, "/")
	switch strings.TrimSpace(segments[0]) {
	case "m", "m'":
	default:
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath,
			path)
	}

	elements := make([]PathElement, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}

		var hardened bool
		if strings.HasSuffix(seg, "'") || strings.HasSuffix(seg, "h") {
			hardened = true
			seg = seg[:len(seg)-1]
		}

		idx, err := strconv.ParseUint(seg, 10, 32)
		if err != nil || idx >= HardenedKeyStart {
			return nil, fmt.Errorf("%w: bad segment %q in %q",
				ErrInvalidPath, seg, path)
		}

		elements = append(elements, PathElement{
			Index:    uint32(idx),
			Hardened: hardened,
		})
	}

	return elements, nil
}

// FormatPath renders elements as a path string rooted at m.
func FormatPath(elements []PathElement) string {
	var b strings.Builder
	b.WriteString("m")
	for _, e := range elements {
		b.WriteString("/")
		b.WriteString(e.String())
	}

	return b.String()
}

// Derive walks the given path from this node. An empty path returns the
// receiver itself.
func (k *HDKey) Derive(path string) (*HDKey, error) {
	elements, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	return k.DerivePath(elements)
}

// DerivePath walks the parsed path from this node.
func (k *HDKey) DerivePath(elements []PathElement) (*HDKey, error) {
	child := k
	for _, e := range elements {
		var err error
		child, err = child.DeriveChildKey(e.Index, e.Hardened)
		if err != nil {
			return nil, fmt.Errorf("unable to derive %v: %w", e, err)
		}
	}

	return child, nil
}

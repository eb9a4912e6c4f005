package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	// KeySize is the size of a symmetric key.
	KeySize = 32

	// IVSize is the size of the random nonce that precedes every sealed
	// payload.
	IVSize = 16

	// TagSize is the size of the GCM authentication tag.
	TagSize = 16

	// Overhead is the number of bytes Seal adds to a plaintext.
	Overhead = IVSize + TagSize
)

var (
	// ErrInvalidKeySize is returned when a key is not KeySize bytes.
	ErrInvalidKeySize = fmt.Errorf("envelope key must be %d bytes", KeySize)

	// ErrCiphertextTooShort is returned when a sealed payload cannot even
	// hold the nonce and the tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// DecryptionError is returned when a sealed payload fails authentication.
type DecryptionError struct {
	Err error
}

// Error returns a human readable description of the failure.
func (e *DecryptionError) Error() string {
	return fmt.Sprintf("unable to decrypt payload: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Cipher seals and opens payloads with AES-256-GCM under a fixed key. A sealed
// payload is laid out as iv || ciphertext || tag.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// Option modifies a Cipher.
type Option func(*Cipher)

// WithRand overrides the nonce source.
func WithRand(r io.Reader) Option {
	return func(c *Cipher) {
		c.rand = r
	}
}

// New returns a Cipher for the 32 byte key.
func New(key []byte, opts ...Option) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, err
	}

	c := &Cipher{
		aead: aead,
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Seal encrypts plaintext under a fresh random nonce.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	iv := make([]byte, IVSize, IVSize+len(plaintext)+TagSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return nil, fmt.Errorf("unable to read nonce: %w", err)
	}

	return c.aead.Seal(iv, iv, plaintext, nil), nil
}

// Open authenticates and decrypts a payload produced by Seal.
func (c *Cipher) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < Overhead {
		return nil, &DecryptionError{Err: ErrCiphertextTooShort}
	}

	iv, ct := sealed[:IVSize], sealed[IVSize:]
	plaintext, err := c.aead.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}

	return plaintext, nil
}

// OpenTagFirst decrypts the older tag || iv || ciphertext layout.
func (c *Cipher) OpenTagFirst(sealed []byte) ([]byte, error) {
	if len(sealed) < Overhead {
		return nil, &DecryptionError{Err: ErrCiphertextTooShort}
	}

	tag := sealed[:TagSize]
	iv := sealed[TagSize:Overhead]
	ct := make([]byte, 0, len(sealed)-IVSize)
	ct = append(ct, sealed[Overhead:]...)
	ct = append(ct, tag...)

	plaintext, err := c.aead.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}

	return plaintext, nil
}

// SealString seals plaintext and base64 encodes the result.
func (c *Cipher) SealString(plaintext []byte) (string, error) {
	sealed, err := c.Seal(plaintext)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenString reverses SealString.
func (c *Cipher) OpenString(content string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, &DecryptionError{Err: err}
	}

	return c.Open(sealed)
}

// EncryptPayloadToWriter seals everything read from payload and writes the
// result to w.
func EncryptPayloadToWriter(payload io.Reader, w io.Writer,
	key []byte) error {

	c, err := New(key)
	if err != nil {
		return err
	}

	plaintext, err := io.ReadAll(payload)
	if err != nil {
		return err
	}

	sealed, err := c.Seal(plaintext)
	if err != nil {
		return err
	}

	_, err = w.Write(sealed)
	return err
}

// DecryptPayloadFromReader reads a payload written by EncryptPayloadToWriter
// and returns the plaintext.
func DecryptPayloadFromReader(r io.Reader, key []byte) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}

	sealed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return c.Open(sealed)
}

// Package adaptive provides authenticated encryption with hardware-aware
// algorithm selection.
package adaptive

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
)

// Errors.
var (
	ErrUnknownCipher   = errors.New("adaptive: unknown cipher")
	ErrCiphertextShort = errors.New("adaptive: ciphertext too short")
	ErrInvalidKeySize  = errors.New("adaptive: invalid key size")
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// Stable on-disk identifiers.
const (
	idAESGCM   byte = 1
	idChaCha20 byte = 2
)

// ID returns the one-byte identifier of the type, or 0 if unknown.
func (t CipherType) ID() byte {
	switch t {
	case CipherAESGCM:
		return idAESGCM
	case CipherChaCha20:
		return idChaCha20
	default:
		return 0
	}
}

// TypeFromID maps an identifier back to its type.
func TypeFromID(id byte) (CipherType, error) {
	switch id {
	case idAESGCM:
		return CipherAESGCM, nil
	case idChaCha20:
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("%w: id %d", ErrUnknownCipher, id)
	}
}

// ParseType validates a cipher name. The empty string selects the
// hardware preferred cipher.
func ParseType(name string) (CipherType, error) {
	switch CipherType(name) {
	case "":
		return Preferred(), nil
	case CipherAESGCM, CipherChaCha20:
		return CipherType(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCipher, name)
	}
}

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt seals plaintext; the random nonce is prepended to the result.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt opens the output of Encrypt.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// Preferred returns the cipher type best suited to the running CPU.
// On amd64 and arm64 Go's crypto/aes uses hardware instructions.
func Preferred() CipherType {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return CipherAESGCM
	default:
		return CipherChaCha20
	}
}

// New creates a cipher of the preferred type.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, Preferred())
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, cipherType)
	}
}

// NewWithID creates a cipher from its one-byte identifier.
func NewWithID(key []byte, id byte) (Cipher, error) {
	t, err := TypeFromID(id)
	if err != nil {
		return nil, err
	}
	return NewWithType(key, t)
}

// aeadCipher adapts a cipher.AEAD to Cipher.
type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
	rand io.Reader
}

func (c *aeadCipher) Type() CipherType { return c.typ }

func (c *aeadCipher) NonceSize() int { return c.aead.NonceSize() }

func (c *aeadCipher) Overhead() int { return c.aead.Overhead() }

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("adaptive: read nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(ciphertext) < n+c.aead.Overhead() {
		return nil, ErrCiphertextShort
	}
	return c.aead.Open(nil, ciphertext[:n], ciphertext[n:], additionalData)
}

func newAEADCipher(typ CipherType, aead cipher.AEAD) *aeadCipher {
	return &aeadCipher{typ: typ, aead: aead, rand: rand.Reader}
}

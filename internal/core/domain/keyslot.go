// Package domain defines the core domain models for otpslot.
//
// Domain models are pure value objects without any
// IO dependencies or framework coupling.
package domain

import (
	"crypto/subtle"
	"encoding/hex"
)

// Keyslot constraints.
const (
	// MaxKeySlots is the default keyslot capacity of a freshly formatted store.
	MaxKeySlots = 8

	// MaxCapacity bounds the configurable capacity (slot keys use two digits).
	MaxCapacity = 99

	// StorageMagic marks a formatted keyslot image.
	StorageMagic uint32 = 0x0420EC41

	// PublicIDLength is the length of the per-slot public identifier.
	PublicIDLength = 6

	// PrivateIDLength is the length of the derived private identifier.
	PrivateIDLength = 6

	// AESKeyLength is the length of the derived AES-128 key.
	AESKeyLength = 16

	// TokenLength is the length of a modhex encoded OTP.
	TokenLength = 44

	// MaxSessionCounter is the session counter value at which generation stops.
	MaxSessionCounter = 255

	// DerivationPurpose is the first (non-hardened) path element, ASCII "yubi".
	DerivationPurpose uint32 = 0x79756269
)

// PublicID identifies a keyslot to the validating server. It is sent in the
// clear as the first 12 characters of every token.
type PublicID [PublicIDLength]byte

// String returns the lowercase hex form.
func (p PublicID) String() string {
	return hex.EncodeToString(p[:])
}

// IsZero reports whether the id is all zeroes.
func (p PublicID) IsZero() bool {
	return p == PublicID{}
}

// KeySlot is the persisted metadata of one credential.
// No secret material is ever stored with it.
type KeySlot struct {
	// Enabled marks the slot as in use.
	Enabled bool `json:"enabled"`

	// PublicID is drawn at random when the slot is created.
	PublicID PublicID `json:"public_id"`

	// BootCount starts at 1 and increments once per boot.
	BootCount uint16 `json:"boot_count"`
}

// NewKeySlot returns an enabled slot with a boot count of 1.
func NewKeySlot(publicID PublicID) KeySlot {
	return KeySlot{
		Enabled:   true,
		PublicID:  publicID,
		BootCount: 1,
	}
}

// KeySecrets holds the secrets derived for one keyslot.
// Callers must call Wipe once done with them.
type KeySecrets struct {
	AESKey    [AESKeyLength]byte
	PrivateID [PrivateIDLength]byte
}

// Wipe zeroes the secrets in place.
func (s *KeySecrets) Wipe() {
	for i := range s.AESKey {
		s.AESKey[i] = 0
	}
	for i := range s.PrivateID {
		s.PrivateID[i] = 0
	}
}

// Equal compares two secret sets in constant time.
func (s *KeySecrets) Equal(other *KeySecrets) bool {
	a := subtle.ConstantTimeCompare(s.AESKey[:], other.AESKey[:])
	b := subtle.ConstantTimeCompare(s.PrivateID[:], other.PrivateID[:])
	return a&b == 1
}

// AESKeyChunks splits the hex AES key into 5, 5 and 6 byte groups,
// the way the key is shown for manual entry into a validation server.
func (s *KeySecrets) AESKeyChunks() [3]string {
	k := hex.EncodeToString(s.AESKey[:])
	return [3]string{k[0:10], k[10:20], k[20:32]}
}

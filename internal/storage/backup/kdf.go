// Package backup exports and imports the keyslot image as an encrypted file.
package backup

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/otpslot-go/internal/core/domain"
)

// KDF identifies how the file key was derived.
type KDF byte

const (
	// KDFSeed derives the key from the device root seed with HKDF-SHA256.
	KDFSeed KDF = 1

	// KDFPassphrase derives the key from a passphrase with Argon2id.
	KDFPassphrase KDF = 2
)

// String returns the KDF name.
func (k KDF) String() string {
	switch k {
	case KDFSeed:
		return "hkdf-sha256"
	case KDFPassphrase:
		return "argon2id"
	default:
		return fmt.Sprintf("kdf(%d)", byte(k))
	}
}

const (
	// MinSeedLength is the minimum root seed length accepted as key material.
	MinSeedLength = 16

	// MinPassphraseLength is the minimum passphrase length.
	MinPassphraseLength = 8

	// SaltLength is the fixed salt length used in key derivation.
	SaltLength = 16

	keyLength = 32

	hkdfInfo = "otpslot backup v1"

	// Argon2 parameters for key derivation from passphrase.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// KeySource supplies the key material for a backup file.
// A non-empty Passphrase takes precedence over Seed.
type KeySource struct {
	Seed       []byte
	Passphrase []byte
}

// kdf reports which derivation the source selects.
func (s KeySource) kdf() (KDF, error) {
	switch {
	case len(s.Passphrase) > 0:
		if len(s.Passphrase) < MinPassphraseLength {
			return 0, domain.ErrInvalidArgument.WithDetails(
				fmt.Sprintf("passphrase must be at least %d characters", MinPassphraseLength))
		}
		return KDFPassphrase, nil
	case len(s.Seed) > 0:
		if len(s.Seed) < MinSeedLength {
			return 0, domain.ErrInvalidRootSecret.WithDetails("seed too short for backup key")
		}
		return KDFSeed, nil
	default:
		return 0, domain.ErrMissingArgument.WithDetails("backup needs a root seed or a passphrase")
	}
}

// deriveKey derives the file key for kdf from the source and salt.
func deriveKey(src KeySource, kdf KDF, salt []byte) ([]byte, error) {
	switch kdf {
	case KDFPassphrase:
		if len(src.Passphrase) == 0 {
			return nil, domain.ErrMissingArgument.WithDetails("backup was sealed with a passphrase")
		}
		return argon2.IDKey(src.Passphrase, salt, argon2Time, argon2Memory, argon2Threads, keyLength), nil

	case KDFSeed:
		if len(src.Seed) == 0 {
			return nil, domain.ErrMissingArgument.WithDetails("backup was sealed with the root seed")
		}
		reader := hkdf.New(sha256.New, src.Seed, salt, []byte(hkdfInfo))
		key := make([]byte, keyLength)
		if _, err := io.ReadFull(reader, key); err != nil {
			return nil, fmt.Errorf("backup: derive key: %w", err)
		}
		return key, nil

	default:
		return nil, domain.ErrBackupCorrupted.WithDetails(fmt.Sprintf("unknown kdf %d", byte(kdf)))
	}
}

// zeroKey securely zeros a key in memory.
func zeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}

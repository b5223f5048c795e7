// Package derive re-derives per-keyslot secrets from a device root seed.
package derive

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	drbg "github.com/canonical/go-sp800.90a-drbg"

	"github.com/yndnr/otpslot-go/internal/core/domain"
)

// drbgKeyLen selects AES-256 for the CTR_DRBG.
const drbgKeyLen = 32

// Path returns the derivation path for a public id.
func Path(publicID domain.PublicID) []uint32 {
	h := sha256.Sum256(publicID[:])

	path := make([]uint32, 1+len(h)/4)
	path[0] = domain.DerivationPurpose
	for i := 0; i < len(h)/4; i++ {
		path[i+1] = binary.BigEndian.Uint32(h[4*i:]) | 0x80000000
	}
	return path
}

// Deriver produces keyslot secrets from an HD root.
type Deriver struct {
	hd HD
}

// NewDeriver creates a Deriver over hd.
func NewDeriver(hd HD) *Deriver {
	return &Deriver{hd: hd}
}

// Derive reproduces the secrets for publicID.
//
// Any failure returns domain.ErrDerivationFault and no secrets.
func (d *Deriver) Derive(publicID domain.PublicID) (*domain.KeySecrets, error) {
	node, err := d.hd.DerivePath(Path(publicID))
	if err != nil {
		return nil, domain.ErrDerivationFault.WithCause(err)
	}
	if len(node) != NodeLength {
		wipe(node)
		return nil, domain.ErrDerivationFault.WithDetails(fmt.Sprintf("node length %d", len(node)))
	}

	entropy := sha256.Sum256(node)
	wipe(node)
	defer wipe(entropy[:])

	rng, err := drbg.NewCTRWithExternalEntropy(drbgKeyLen, entropy[:], nil, nil, nil)
	if err != nil {
		return nil, domain.ErrDerivationFault.WithCause(fmt.Errorf("instantiate drbg: %w", err))
	}

	secrets := &domain.KeySecrets{}
	if err := rng.Generate(nil, secrets.AESKey[:]); err != nil {
		secrets.Wipe()
		return nil, domain.ErrDerivationFault.WithCause(fmt.Errorf("generate aes key: %w", err))
	}
	if err := rng.Generate(nil, secrets.PrivateID[:]); err != nil {
		secrets.Wipe()
		return nil, domain.ErrDerivationFault.WithCause(fmt.Errorf("generate private id: %w", err))
	}
	return secrets, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

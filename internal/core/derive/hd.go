// Package derive re-derives per-keyslot secrets from a device root seed.
package derive

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/yndnr/otpslot-go/internal/core/domain"
)

// NodeLength is the length of a serialized derived node: private key ‖ chain code.
const NodeLength = 64

// Seed length limits.
const (
	MinSeedBytes = hdkeychain.MinSeedBytes
	MaxSeedBytes = hdkeychain.MaxSeedBytes
	// DefaultSeedBytes is the length of seeds created by GenerateSeed.
	DefaultSeedBytes = hdkeychain.MaxSeedBytes
)

// HD derives a node from the root secret along a path of child indexes.
type HD interface {
	// DerivePath returns NodeLength bytes: the 32-byte private key
	// (left zero padded) followed by the 32-byte chain code.
	DerivePath(path []uint32) ([]byte, error)
}

// HDRoot is a BIP32 master key over secp256k1.
type HDRoot struct {
	master *hdkeychain.ExtendedKey
}

// NewHDRoot creates the master key from a raw seed.
func NewHDRoot(seed []byte) (*HDRoot, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDRoot{master: master}, nil
}

// ParseSeed decodes a hex seed and checks its length.
func ParseSeed(s string) ([]byte, error) {
	seed, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, domain.ErrInvalidRootSecret.WithDetails("seed is not hex").WithCause(err)
	}
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, domain.ErrInvalidRootSecret.WithDetails(
			fmt.Sprintf("seed must be %d..%d bytes, got %d", MinSeedBytes, MaxSeedBytes, len(seed)))
	}
	return seed, nil
}

// LoadSeedFile reads a hex encoded seed from path.
func LoadSeedFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(string(data))
}

// GenerateSeed returns a fresh random seed of DefaultSeedBytes.
func GenerateSeed() ([]byte, error) {
	return hdkeychain.GenerateSeed(DefaultSeedBytes)
}

// DerivePath implements HD.
func (r *HDRoot) DerivePath(path []uint32) ([]byte, error) {
	key := r.master
	for _, idx := range path {
		child, err := key.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %#08x: %w", idx, err)
		}
		key = child
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}

	node := make([]byte, NodeLength)
	copy(node[:32], priv.Serialize())
	copy(node[32:], key.ChainCode())
	return node, nil
}

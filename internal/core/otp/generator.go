// Package otp assembles and encrypts Yubico OTP tokens.
package otp

import (
	"crypto/aes"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/pkg/modhex"
)

// MaxFillerAttempts bounds how often the random filler is redrawn
// while searching a checksum filler.
const MaxFillerAttempts = 64

// Token is an encrypted OTP.
type Token struct {
	publicID   domain.PublicID
	ciphertext [PlaintextLength]byte
}

// PublicID returns the modhex public id prefix.
func (t Token) PublicID() string {
	return modhex.Encode(t.publicID[:])
}

// Ciphertext returns a copy of the encrypted block.
func (t Token) Ciphertext() [PlaintextLength]byte {
	return t.ciphertext
}

// String returns the 44 character modhex token.
func (t Token) String() string {
	return modhex.Encode(t.publicID[:]) + modhex.Encode(t.ciphertext[:])
}

// Result is the outcome of a successful generation.
type Result struct {
	Token Token

	// PaddingAttempts counts filler draws, at least 1.
	PaddingAttempts int
}

// Generator builds tokens from derived secrets.
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a Generator drawing filler from r.
// A nil reader selects crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// Generate produces the token for slot using secrets and the current
// session counter. It never mutates the counter; the caller increments
// it after a successful call.
func (g *Generator) Generate(slot domain.KeySlot, secrets *domain.KeySecrets, counter uint8) (*Result, error) {
	if counter == domain.MaxSessionCounter {
		return nil, domain.ErrSessionExhausted
	}

	var (
		p      Plaintext
		random [2]byte
	)
	defer p.Wipe()

	attempts := 0
	for {
		if attempts == MaxFillerAttempts {
			return nil, domain.ErrPaddingNotFound.WithDetails(fmt.Sprintf("%d filler draws", attempts))
		}
		attempts++

		if _, err := io.ReadFull(g.rand, random[:]); err != nil {
			return nil, domain.ErrInternal.WithCause(fmt.Errorf("read random filler: %w", err))
		}
		p = NewPlaintext(secrets.PrivateID, slot.BootCount, counter, random)
		if p.Pad() {
			break
		}
	}

	block, err := aes.NewCipher(secrets.AESKey[:])
	if err != nil {
		return nil, domain.ErrInternal.WithCause(fmt.Errorf("create cipher: %w", err))
	}

	res := &Result{PaddingAttempts: attempts}
	res.Token.publicID = slot.PublicID
	block.Encrypt(res.Token.ciphertext[:], p[:])
	return res, nil
}

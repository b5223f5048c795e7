// Package otp assembles and encrypts Yubico OTP tokens.
package otp

import (
	"encoding/binary"

	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/pkg/crc16"
)

// Plaintext layout offsets.
const (
	offPrivateID    = 0
	offBootCount    = 6
	offTimestamp    = 8
	offSession      = 11
	offRandom       = 12
	offPadding      = 14
	PlaintextLength = 16
)

// Plaintext is one unencrypted OTP block.
type Plaintext [PlaintextLength]byte

// NewPlaintext fills every field except the checksum filler.
func NewPlaintext(privateID [domain.PrivateIDLength]byte, bootCount uint16, counter uint8, random [2]byte) Plaintext {
	var p Plaintext
	copy(p[offPrivateID:], privateID[:])
	binary.LittleEndian.PutUint16(p[offBootCount:], bootCount)
	p[offTimestamp] = counter
	p[offSession] = counter
	copy(p[offRandom:], random[:])
	return p
}

// PrivateID returns the private id field.
func (p *Plaintext) PrivateID() [domain.PrivateIDLength]byte {
	var id [domain.PrivateIDLength]byte
	copy(id[:], p[offPrivateID:offBootCount])
	return id
}

// BootCount returns the boot counter field.
func (p *Plaintext) BootCount() uint16 {
	return binary.LittleEndian.Uint16(p[offBootCount:])
}

// Timestamp returns the three timestamp bytes.
func (p *Plaintext) Timestamp() [3]byte {
	return [3]byte{p[offTimestamp], p[offTimestamp+1], p[offTimestamp+2]}
}

// SessionCounter returns the session counter field.
func (p *Plaintext) SessionCounter() uint8 {
	return p[offSession]
}

// Random returns the random filler.
func (p *Plaintext) Random() [2]byte {
	return [2]byte{p[offRandom], p[offRandom+1]}
}

// Padding returns the checksum filler.
func (p *Plaintext) Padding() [2]byte {
	return [2]byte{p[offPadding], p[offPadding+1]}
}

// Pad searches a checksum filler for the first 14 bytes and stores it.
// It reports false, leaving the filler untouched, when no non-zero pair exists.
func (p *Plaintext) Pad() bool {
	pad, ok := SolvePadding(crc16.Checksum(p[:offPadding]))
	if !ok {
		return false
	}
	p[offPadding] = pad[0]
	p[offPadding+1] = pad[1]
	return true
}

// Valid reports whether the block checksums to the residual.
func (p *Plaintext) Valid() bool {
	return crc16.Verify(p[:])
}

// Wipe zeroes the block.
func (p *Plaintext) Wipe() {
	*p = Plaintext{}
}

// SolvePadding returns the first pair (b0, b1), both in 1..255 and in
// ascending order of b0 then b1, that brings partial to crc16.Residual.
func SolvePadding(partial uint16) ([2]byte, bool) {
	for b0 := 1; b0 <= 0xFF; b0++ {
		for b1 := 1; b1 <= 0xFF; b1++ {
			pair := [2]byte{byte(b0), byte(b1)}
			if crc16.Update(partial, pair[:]) == crc16.Residual {
				return pair, true
			}
		}
	}
	return [2]byte{}, false
}

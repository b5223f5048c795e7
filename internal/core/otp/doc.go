// Package otp assembles and encrypts Yubico OTP tokens.
//
// A token is the modhex public id of a keyslot followed by the modhex
// AES-128 encryption of a 16-byte plaintext:
//
//	offset  len  field
//	0       6    private id
//	6       2    boot counter, little endian
//	8       3    timestamp (session counter, 0, 0)
//	11      1    session counter
//	12      2    random filler
//	14      2    checksum filler
//
// The checksum filler is chosen so that the CRC-16 over the whole block
// equals crc16.Residual. Both filler bytes must be non-zero; when the
// unique solution contains a zero the random filler is drawn again.
package otp

// Package crc16 implements the CRC-16 used by the Yubico OTP block format.
//
// The checksum is the reflected CCITT polynomial (feedback constant 0x8408)
// processed bit-serially, least significant bit first, with an initial
// state of 0xFFFF and no final XOR (the CRC-16/MCRF4XX parameter set).
//
// A block that ends with the one's complement of the checksum of its
// preceding bytes, little-endian, checksums to the fixed Residual 0xF0B8.
// Validators check exactly that, and the token generator searches for the
// trailing two bytes that satisfy it.
package crc16

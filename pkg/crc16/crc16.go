// Package crc16 implements the Yubico OTP CRC-16.
package crc16

const (
	// Poly is the reflected feedback constant.
	Poly uint16 = 0x8408

	// Init is the initial running state.
	Init uint16 = 0xFFFF

	// Residual is the value a correctly padded block checksums to.
	Residual uint16 = 0xF0B8
)

// Update continues a running checksum over data.
//
// Splitting data and feeding the chunks in order yields the same result as
// a single call over the concatenation.
func Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			lsb := crc & 1
			crc >>= 1
			if lsb != 0 {
				crc ^= Poly
			}
		}
	}
	return crc
}

// Checksum computes the checksum of data from the initial state.
func Checksum(data []byte) uint16 {
	return Update(Init, data)
}

// Verify reports whether block checksums to Residual.
func Verify(block []byte) bool {
	return Checksum(block) == Residual
}

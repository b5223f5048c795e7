// Package adaptive provides authenticated encryption with hardware-aware
// algorithm selection.
//
// Supported Algorithms:
//
//   - AES-256-GCM: Preferred when hardware AES support is available
//   - ChaCha20-Poly1305: Fallback for systems without AES acceleration
//
// Each algorithm has a one-byte identifier so that file formats can
// record which cipher sealed a payload and reopen it on any host.
//
// Usage:
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Encrypt(plaintext, header)
//	c, err = adaptive.NewWithID(key, c.Type().ID())
//	plaintext, err := c.Decrypt(sealed, header)
package adaptive

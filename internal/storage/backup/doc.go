// Package backup exports and imports the keyslot image as an encrypted file.
//
// Only public metadata (public ids and boot counts) is written; slot
// secrets are re-derived from the root seed after a restore, so a backup
// is useless on a device with a different seed.
//
// File layout:
//
//	[magic:4 "OTPB"][version:1][cipher:1][kdf:1][salt:16]
//	[nonce | AEAD(JSON image)]
//
// The 23 header bytes are authenticated as additional data. The key is
// HKDF-SHA256 over the root seed, or Argon2id over a passphrase when one
// is supplied; the salt is fresh for every file.
package backup

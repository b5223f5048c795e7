// Package derive re-derives per-keyslot secrets from a device root seed.
//
// No per-credential secret is ever persisted. Given the public id of a
// keyslot, the AES key and private id are reproduced as follows:
//
//  1. h = SHA-256(public id)
//  2. path = [0x79756269, h[0:4]|H, h[4:8]|H, ..., h[28:32]|H]
//     where each word is read big-endian and H is the hardened bit
//  3. node = BIP32 secp256k1 derivation of path: private key ‖ chain code
//  4. entropy = SHA-256(node)
//  5. CTR_DRBG (AES-256, derivation function) seeded with entropy;
//     the first 16 bytes drawn form the AES key, the next 6 the private id
//
// The same root seed and public id always yield the same secrets.
package derive

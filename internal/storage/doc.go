// Package storage provides the embedded KV substrate for otpslot.
//
// The keyslot image (format marker, capacity and one record per slot)
// lives in a small Badger v3 database under the configured data
// directory. Mutations that touch several records, such as erasing a
// slot and shifting its successors down, are applied as one atomic
// batch so the image never holds a gap in the enabled prefix.
//
// Subpackages:
//
//   - keyslot: fixed-capacity keyslot table and its persistence
//   - memory: in-process KVEngine used by tests
//   - backup: encrypted export and import of the keyslot image
package storage

// Package memory provides an in-memory storage.KVEngine.
//
// It backs keyslot stores in tests and in throwaway sessions where
// nothing should touch the disk. Batches are applied under a single
// lock, so readers never observe a half-applied batch.
//
// Thread Safety:
//
// All operations are thread-safe. Read operations use RLock,
// write operations use Lock.
package memory

// Package keyslot implements the fixed-capacity keyslot store.
//
// A Table is the pure in-memory model: a fixed number of records in
// which the enabled slots always form a contiguous prefix in creation
// order. Insertion takes the first disabled record; erasing record i
// shifts every later enabled record down by one and clears the tail.
//
// A Store persists a Table through a storage.KVEngine. Every mutation is
// computed on a copy of the table, written as one atomic batch, and only
// then made visible, so a failed write leaves both the image and the
// in-memory view untouched.
//
// Persisted image:
//
//	meta/magic     4 bytes, big endian StorageMagic
//	meta/capacity  2 bytes, big endian
//	slot/NN        9 bytes: enabled(1) | public id(6) | boot count(2, little endian)
package keyslot

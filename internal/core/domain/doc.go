// Package domain defines the core domain models for otpslot.
//
// Domain models are pure value objects without any
// IO dependencies or framework coupling. This package contains:
//
//   - KeySlot: persisted credential metadata (public id, boot count)
//   - KeySecrets: per-slot secrets re-derived on demand, never stored
//   - Errors: Domain-specific error definitions
//
// A keyslot store keeps enabled slots as a contiguous prefix in
// creation order; see the keyslot storage package for the invariant.
package domain

// Package service provides the device context of otpslot.
//
// Device owns the keyslot store, the secret deriver, the OTP generator,
// the keyboard sink and the volatile session counter. It is the only
// component that mutates keyslots, and it serialises every operation so
// the shell, the config watcher and signal handling cannot interleave a
// store mutation.
//
// Storage and derivation are consumed through the KeySlotRepository and
// SecretDeriver interfaces, allowing the in-memory engine and fake
// derivers to be injected in tests.
package service

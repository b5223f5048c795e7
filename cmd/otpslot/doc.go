// Package main provides the entry point for otpslot.
//
// otpslot is a software Yubico OTP token: it keeps a fixed table of keyslots
// whose secrets are derived from one root seed and types one-time
// passwords the way a USB token would.
//
// Usage:
//
//	otpslot init
//	otpslot key new
//	otpslot otp 0
//	otpslot shell
//
// Exit status is 2 for bad input, 3 for an exhausted device and 1 for
// any other failure.
package main

// Package modhex provides the two byte-to-text encodings used by Yubico OTP.
//
// Encodings:
//
//   - Hex: lowercase hexadecimal, alphabet "0123456789abcdef"
//   - Modhex: modified hexadecimal, alphabet "cbdefghijklnrtuv"
//
// Modhex only uses characters that sit on the same physical keys across
// common keyboard layouts, so a token typed by a keyboard-emulating device
// arrives intact regardless of the host's layout setting.
//
// Both encoders emit two characters per input byte with no separators.
package modhex

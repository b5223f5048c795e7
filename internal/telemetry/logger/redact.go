package logger

import (
	"log/slog"
	"strings"

	"github.com/yndnr/otpslot-go/pkg/modhex"
)

// A Yubico OTP is 12 modhex characters of public id followed by 32 of
// ciphertext. Only the public id survives masking.
const (
	otpLength   = 44
	publicIDLen = 12
)

const redacted = "***REDACTED***"

// sensitiveWords are matched against the underscore separated words of
// an attribute key, so "aes_key" and "master_seed" are hidden while
// "keys" and "public_id" are not.
var sensitiveWords = map[string]bool{
	"aes":        true,
	"credential": true,
	"key":        true,
	"passphrase": true,
	"password":   true,
	"private":    true,
	"secret":     true,
	"seed":       true,
}

// redactSensitive hides values under sensitive keys and masks anything
// shaped like an OTP whatever its key.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if IsOTP(s) {
			return slog.String(a.Key, MaskOTP(s))
		}
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redacted)
		}
	case slog.KindAny:
		if _, ok := a.Value.Any().([]byte); ok && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redacted)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// IsOTP reports whether s has the shape of a modhex OTP.
func IsOTP(s string) bool {
	return len(s) == otpLength && modhex.Valid(s)
}

// MaskOTP keeps the public id and the last two characters of an OTP.
// Other values are returned unchanged.
func MaskOTP(s string) string {
	if !IsOTP(s) {
		return s
	}
	return s[:publicIDLen] + "..." + s[len(s)-2:]
}

// IsSensitiveKey reports whether an attribute key names secret material.
func IsSensitiveKey(key string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	}) {
		if sensitiveWords[word] {
			return true
		}
	}
	return false
}

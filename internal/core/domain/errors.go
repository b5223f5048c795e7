// Package domain defines the core domain models for otpslot.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError is a device error carrying a stable error code.
//
// Codes have the form OS-<AREA>-<NNNN>. The first digit of NNNN is the
// error class: 1 bad input, 4 device state, 5 environment fault.
type DomainError struct {
	Code    string // e.g. "OS-SLOT-4090"
	Message string
	Details string
	Cause   error
}

// Error classes derived from the numeric part of a code.
const (
	ClassUnknown byte = 0
	ClassInput   byte = '1'
	ClassState   byte = '4'
	ClassFault   byte = '5'
)

// NewDomainError creates a DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code, so sentinels compare
// equal to their WithDetails and WithCause copies.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

// Class returns the error class encoded in the code.
func (e *DomainError) Class() byte {
	i := strings.LastIndexByte(e.Code, '-')
	if i < 0 || i+1 >= len(e.Code) {
		return ClassUnknown
	}
	return e.Code[i+1]
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	c := *e
	c.Cause = cause
	return &c
}

// IsDomainError reports whether err wraps a DomainError with the given
// code. An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode returns the code of the DomainError err wraps, or "".
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ErrorClass returns the class of the DomainError err wraps.
func ErrorClass(err error) byte {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Class()
	}
	return ClassUnknown
}

// ============================================================================
// Keyslot Errors (SLOT)
// ============================================================================

var (
	// ErrNoFreeKeySlot indicates every keyslot is in use.
	ErrNoFreeKeySlot = NewDomainError("OS-SLOT-4090", "no free keyslot")

	// ErrKeySlotNotFound indicates the index does not name an enabled keyslot.
	ErrKeySlotNotFound = NewDomainError("OS-SLOT-4040", "keyslot not found")

	// ErrPublicIDConflict indicates no unused public id could be drawn.
	ErrPublicIDConflict = NewDomainError("OS-SLOT-4091", "public id conflict")
)

// ============================================================================
// Token Errors (OTP)
// ============================================================================

var (
	// ErrSessionExhausted indicates 255 tokens were issued since boot.
	// The device must be rebooted before it can issue more.
	ErrSessionExhausted = NewDomainError("OS-OTP-4290", "session counter exhausted, reboot required")

	// ErrPaddingNotFound indicates no checksum filler was found.
	ErrPaddingNotFound = NewDomainError("OS-OTP-5000", "checksum padding not found")
)

// ============================================================================
// Derivation Errors (DRV)
// ============================================================================

var (
	// ErrDerivationFault indicates the secret derivation chain could not run.
	// It points at a broken root secret or environment, never at bad input.
	ErrDerivationFault = NewDomainError("OS-DRV-5000", "secret derivation fault")

	// ErrInvalidRootSecret indicates the configured root seed is unusable.
	ErrInvalidRootSecret = NewDomainError("OS-DRV-4000", "invalid root secret")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected internal error.
	ErrInternal = NewDomainError("OS-SYS-5000", "internal error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("OS-SYS-5001", "storage error")

	// ErrStorageFormat indicates the persisted keyslot image is malformed.
	ErrStorageFormat = NewDomainError("OS-SYS-5002", "storage format error")

	// ErrNotBooted indicates a token was requested before the boot
	// counters were advanced for this power-on.
	ErrNotBooted = NewDomainError("OS-SYS-4090", "device not booted")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("OS-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("OS-ARG-1002", "missing required argument")
)

// ============================================================================
// Backup Errors (BAK)
// ============================================================================

var (
	// ErrBackupCorrupted indicates a backup file failed to parse or decrypt.
	ErrBackupCorrupted = NewDomainError("OS-BAK-4000", "backup corrupted or wrong key")

	// ErrBackupCapacity indicates a backup holds more slots than the store.
	ErrBackupCapacity = NewDomainError("OS-BAK-4001", "backup does not fit keyslot capacity")
)

package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{"plain", NewDomainError("OS-TEST-1000", "test message"), "[OS-TEST-1000] test message"},
		{"details", NewDomainError("OS-TEST-1001", "test message").WithDetails("extra"), "[OS-TEST-1001] test message: extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDomainError_IsByCode(t *testing.T) {
	a := NewDomainError("OS-TEST-1000", "message 1")
	b := NewDomainError("OS-TEST-1000", "message 2")
	c := NewDomainError("OS-TEST-1001", "message 1")

	if !errors.Is(a, b) {
		t.Error("same code should match")
	}
	if errors.Is(a, c) {
		t.Error("different code should not match")
	}
	if errors.Is(a, errors.New("OS-TEST-1000")) {
		t.Error("plain error should not match")
	}
	if !errors.Is(fmt.Errorf("open: %w", ErrKeySlotNotFound.WithDetails("index 3")), ErrKeySlotNotFound) {
		t.Error("wrapped copy should match its sentinel")
	}
}

func TestDomainError_CopiesLeaveSentinelUntouched(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrStorageError.WithDetails("write slot 2").WithCause(cause)

	if ErrStorageError.Details != "" || ErrStorageError.Cause != nil {
		t.Fatal("sentinel modified")
	}
	if err.Details != "write slot 2" || err.Cause != cause || err.Code != ErrStorageError.Code {
		t.Errorf("copy = %+v", err)
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() should return the cause")
	}
	if errors.Unwrap(ErrStorageError) != nil {
		t.Error("sentinel should have no cause")
	}
}

func TestClass(t *testing.T) {
	tests := []struct {
		err  error
		want byte
	}{
		{ErrInvalidArgument, ClassInput},
		{ErrMissingArgument.WithDetails("FILE required"), ClassInput},
		{fmt.Errorf("x: %w", ErrSessionExhausted), ClassState},
		{ErrKeySlotNotFound, ClassState},
		{ErrDerivationFault, ClassFault},
		{NewDomainError("BROKEN", "no class"), ClassUnknown},
		{NewDomainError("OS-X-", "empty number"), ClassUnknown},
		{errors.New("plain"), ClassUnknown},
		{nil, ClassUnknown},
	}
	for _, tt := range tests {
		if got := ErrorClass(tt.err); got != tt.want {
			t.Errorf("ErrorClass(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestIsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("wrapped: %w", ErrKeySlotNotFound)

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"matching code", ErrKeySlotNotFound, "OS-SLOT-4040", true},
		{"other code", ErrKeySlotNotFound, "OS-SLOT-9999", false},
		{"any code", ErrKeySlotNotFound, "", true},
		{"plain error", errors.New("x"), "", false},
		{"wrapped", wrapped, "OS-SLOT-4040", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDomainError(tt.err, tt.code); got != tt.want {
				t.Errorf("IsDomainError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNoFreeKeySlot, "OS-SLOT-4090"},
		{fmt.Errorf("wrapped: %w", ErrSessionExhausted), "OS-OTP-4290"},
		{errors.New("plain"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := GetErrorCode(tt.err); got != tt.want {
			t.Errorf("GetErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestPredefinedErrors(t *testing.T) {
	all := []*DomainError{
		ErrNoFreeKeySlot, ErrKeySlotNotFound, ErrPublicIDConflict,
		ErrSessionExhausted, ErrPaddingNotFound,
		ErrDerivationFault, ErrInvalidRootSecret,
		ErrInternal, ErrStorageError, ErrStorageFormat, ErrNotBooted,
		ErrInvalidArgument, ErrMissingArgument,
		ErrBackupCorrupted, ErrBackupCapacity,
	}

	seen := make(map[string]bool)
	for _, err := range all {
		if err.Message == "" {
			t.Errorf("%s has no message", err.Code)
		}
		if err.Class() == ClassUnknown {
			t.Errorf("%s has no class", err.Code)
		}
		if seen[err.Code] {
			t.Errorf("duplicate error code %q", err.Code)
		}
		seen[err.Code] = true
	}
}

// Package buildinfo reports the version of the otpslot binary.
//
// Release builds inject the values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/otpslot-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/otpslot-go/internal/infra/buildinfo.Commit=abc123"
//
// Values left unset are filled from the module build information
// embedded by the Go toolchain.
package buildinfo

// Package config defines the otpslot configuration.
//
//   - spec.go: Config struct (~/.otpslot/config.yaml)
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: masking of secrets for display
//   - loader.go: merging file, environment and flags
package config

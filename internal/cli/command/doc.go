// Package command defines the otpslot command line with urfave/cli/v2.
//
//   - root.go: application, global flags, Before/After lifecycle
//   - env.go: per-process runtime (config, logger, metrics, device)
//   - init.go: seed creation and store formatting
//   - key.go: keyslot management
//   - otp.go: token generation and typing
//   - shell.go: interactive mode over the same command tree
//   - backup.go: encrypted export and import
//   - config.go, system.go, version.go: inspection commands
//
// Every action runs through action(), which attaches a request id and
// the command name to the context so log lines can be correlated.
package command

// Package repl implements the interactive shell of otpslot.
//
// Each input line is split into arguments and handed to an Executor,
// which runs it as a regular otpslot command. The device stays booted
// for the whole session, so the session counter keeps advancing across
// lines.
//
//   - repl.go: read loop, line splitting and dispatch
//   - completer.go: command name completion for "help"
//   - history.go: history persisted between sessions
package repl

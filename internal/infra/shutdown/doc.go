// Package shutdown runs cleanup hooks when otpslot exits.
//
// One-shot commands call Shutdown after their action returns. The
// interactive shell also waits for SIGINT/SIGTERM so an interrupted
// session still closes the keyslot store and writes the metrics
// textfile. Hooks run once either way.
package shutdown

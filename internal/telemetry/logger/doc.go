// Package logger provides structured logging for otpslot on log/slog.
//
// One process-wide level is shared by all loggers and can be changed
// at runtime. Attributes under secret-looking keys are redacted and any
// value shaped like an OTP is masked down to its public id. A request id
// and command name stored in the context are added to every record.
package logger

package config

import "github.com/yndnr/otpslot-go/internal/core/domain"

// Default configuration values.
const (
	DefaultConfigFile = "~/.otpslot/config.yaml"
	DefaultDataDir    = "~/.otpslot/data"
	DefaultSeedFile   = "~/.otpslot/seed"
	DefaultCapacity   = domain.MaxKeySlots

	DefaultOutputFormat = "table"

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			Capacity:   DefaultCapacity,
			SyncWrites: true,
		},
		Security: SecuritySection{
			MasterSeedFile: DefaultSeedFile,
		},
		Output: OutputSection{
			Format: DefaultOutputFormat,
			Submit: true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

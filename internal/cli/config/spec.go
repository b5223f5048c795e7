package config

// Config is the root configuration of otpslot.
type Config struct {
	Storage  StorageSection  `koanf:"storage" yaml:"storage" json:"storage"`
	Security SecuritySection `koanf:"security" yaml:"security" json:"security"`
	Output   OutputSection   `koanf:"output" yaml:"output" json:"output"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics" json:"metrics"`
	Log      LogSection      `koanf:"log" yaml:"log" json:"log"`

	origins map[string]string
}

// StorageSection configures the keyslot store.
type StorageSection struct {
	DataDir    string `koanf:"data_dir" yaml:"data_dir" json:"data_dir"`
	Capacity   int    `koanf:"capacity" yaml:"capacity" json:"capacity"`
	SyncWrites bool   `koanf:"sync_writes" yaml:"sync_writes" json:"sync_writes"`
}

// SecuritySection configures the root secret and backups.
type SecuritySection struct {
	// MasterSeed is the hex root seed. It wins over MasterSeedFile.
	MasterSeed string `koanf:"master_seed" yaml:"master_seed" json:"master_seed"`

	// MasterSeedFile holds the hex root seed, one line, mode 0600.
	MasterSeedFile string `koanf:"master_seed_file" yaml:"master_seed_file" json:"master_seed_file"`

	// BackupCipher is "aes-gcm", "chacha20-poly1305" or empty for the
	// fastest one on this machine.
	BackupCipher string `koanf:"backup_cipher" yaml:"backup_cipher" json:"backup_cipher"`
}

// OutputSection configures how results reach the user.
type OutputSection struct {
	Format        string  `koanf:"format" yaml:"format" json:"format"`
	KeystrokeRate float64 `koanf:"keystroke_rate" yaml:"keystroke_rate" json:"keystroke_rate"`
	Submit        bool    `koanf:"submit" yaml:"submit" json:"submit"`
}

// MetricsSection configures metrics output.
type MetricsSection struct {
	// Textfile is written on exit in the node_exporter textfile format.
	Textfile string `koanf:"textfile" yaml:"textfile" json:"textfile"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level" json:"level"`
	Format string `koanf:"format" yaml:"format" json:"format"`
}

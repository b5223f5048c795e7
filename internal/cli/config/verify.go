package config

import (
	"fmt"
	"strings"

	"github.com/yndnr/otpslot-go/internal/core/derive"
	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/pkg/crypto/adaptive"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	if err := verifyOutput(&cfg.Output); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return invalid("storage.data_dir is required")
	}
	if cfg.Capacity < 1 || cfg.Capacity > domain.MaxCapacity {
		return invalid(fmt.Sprintf("storage.capacity must be in 1..%d, got %d", domain.MaxCapacity, cfg.Capacity))
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.MasterSeed == "" && cfg.MasterSeedFile == "" {
		return invalid("one of security.master_seed or security.master_seed_file is required")
	}
	if cfg.MasterSeed != "" {
		if _, err := derive.ParseSeed(cfg.MasterSeed); err != nil {
			return fmt.Errorf("security.master_seed: %w", err)
		}
	}
	if _, err := adaptive.ParseType(cfg.BackupCipher); err != nil {
		return invalid(fmt.Sprintf("security.backup_cipher: %v", err))
	}
	return nil
}

func verifyOutput(cfg *OutputSection) error {
	switch strings.ToLower(cfg.Format) {
	case "table", "json", "yaml":
	default:
		return invalid(fmt.Sprintf("output.format must be table, json or yaml, got %q", cfg.Format))
	}
	if cfg.KeystrokeRate < 0 {
		return invalid("output.keystroke_rate must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid(fmt.Sprintf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return invalid(fmt.Sprintf("log.format %q is not json or text", cfg.Format))
	}
	return nil
}

func invalid(details string) error {
	return domain.ErrInvalidArgument.WithDetails(details)
}

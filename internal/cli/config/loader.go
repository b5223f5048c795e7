package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yndnr/otpslot-go/internal/infra/confloader"
)

// Load merges defaults, the config file, OTPSLOT_* environment variables
// and overrides (flags keyed by dotted path), in rising priority.
//
// An empty path selects DefaultConfigFile, which may be missing. An
// explicit path must exist.
func Load(path string, overrides map[string]any) (*Config, string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	path = ExpandHome(path)

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	switch _, err := os.Stat(path); {
	case err == nil:
		opts = append(opts, confloader.WithConfigFile(path))
	case errors.Is(err, os.ErrNotExist) && !explicit:
		path = ""
	default:
		return nil, "", fmt.Errorf("config file %s: %w", path, err)
	}

	cfg := Default()
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, "", err
	}
	cfg.origins = loader.Origins()
	cfg.expandPaths()

	if err := Verify(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Source tells where a configuration key got its value.
type Source struct {
	Key   string `json:"key" yaml:"key"`
	Layer string `json:"layer" yaml:"layer"`
}

// Sources lists the keys set by the file, the environment or a flag,
// sorted by key. Everything else holds its default.
func (c *Config) Sources() []Source {
	keys := make([]string, 0, len(c.origins))
	for k := range c.origins {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Source, 0, len(keys))
	for _, k := range keys {
		out = append(out, Source{Key: k, Layer: c.origins[k]})
	}
	return out
}

func (c *Config) expandPaths() {
	c.Storage.DataDir = ExpandHome(c.Storage.DataDir)
	c.Security.MasterSeedFile = ExpandHome(c.Security.MasterSeedFile)
	c.Metrics.Textfile = ExpandHome(c.Metrics.Textfile)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

package command

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/otpslot-go/internal/core/derive"
	"github.com/yndnr/otpslot-go/internal/telemetry/logger"
)

// InitCommand creates the root seed and formats the keyslot store.
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the root seed (if absent) and format the keyslot store",
		Description: "The seed file is written with mode 0600 and never overwritten. " +
			"Every key secret is derived from it, so back it up offline.",
		Action: action(initAction),
	}
}

type initResult struct {
	SeedSource  string `json:"seed_source" yaml:"seed_source"`
	SeedCreated bool   `json:"seed_created" yaml:"seed_created"`
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	Capacity    int    `json:"capacity" yaml:"capacity"`
	Enabled     int    `json:"enabled" yaml:"enabled"`
}

func initAction(ctx context.Context, c *cli.Context, env *Env) error {
	res := initResult{DataDir: env.Config.Storage.DataDir}

	if env.Config.Security.MasterSeed != "" {
		res.SeedSource = "security.master_seed"
	} else {
		path := env.Config.Security.MasterSeedFile
		created, err := writeSeedFile(path)
		if err != nil {
			return err
		}
		res.SeedSource = path
		res.SeedCreated = created
		if created {
			logger.L(ctx).Info("root seed created", "path", path)
		}
	}

	if _, err := env.Seed(); err != nil {
		return err
	}
	store, err := env.Store(ctx)
	if err != nil {
		return err
	}
	res.Capacity = store.Capacity()
	res.Enabled = store.Count()

	return env.Print(c, res)
}

// writeSeedFile creates a fresh hex seed at path unless one exists.
func writeSeedFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat seed file: %w", err)
	}

	seed, err := derive.GenerateSeed()
	if err != nil {
		return false, fmt.Errorf("generate seed: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("create seed dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return false, fmt.Errorf("create seed file: %w", err)
	}
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		f.Close()
		return false, fmt.Errorf("write seed file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return false, fmt.Errorf("sync seed file: %w", err)
	}
	return true, f.Close()
}

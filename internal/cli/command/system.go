package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/otpslot-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Store and runtime status",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show device and store status",
				Action: action(systemStatus),
			},
			{
				Name:   "gc",
				Usage:  "Reclaim space in the keyslot store",
				Action: action(systemGC),
			},
		},
	}
}

type systemStatusResult struct {
	Version        string `json:"version" yaml:"version"`
	ConfigFile     string `json:"config_file" yaml:"config_file"`
	DataDir        string `json:"data_dir" yaml:"data_dir"`
	Capacity       int    `json:"capacity" yaml:"capacity"`
	Enabled        int    `json:"enabled" yaml:"enabled"`
	Booted         bool   `json:"booted" yaml:"booted"`
	SessionCounter uint8  `json:"session_counter" yaml:"session_counter"`
	StoreKeys      uint64 `json:"store_keys" yaml:"store_keys"`
	StoreSize      string `json:"store_size" yaml:"store_size"`
	LastGC         string `json:"last_gc" yaml:"last_gc"`
}

func systemStatus(ctx context.Context, c *cli.Context, env *Env) error {
	store, err := env.Store(ctx)
	if err != nil {
		return err
	}
	stats, err := env.engine.Stats(ctx)
	if err != nil {
		return err
	}

	res := systemStatusResult{
		Version:    buildinfo.Get().Version,
		ConfigFile: env.ConfigPath,
		DataDir:    env.Config.Storage.DataDir,
		Capacity:   store.Capacity(),
		Enabled:    store.Count(),
		StoreKeys:  stats.TotalKeys,
		StoreSize:  formatBytes(stats.TotalSize),
		LastGC:     "never",
	}
	// Only a shell has a booted device; one-shot commands report cold state.
	if env.device != nil {
		status := env.device.Status()
		res.Booted = status.Booted
		res.SessionCounter = status.SessionCounter
	}
	if stats.LastGCTime > 0 {
		res.LastGC = time.UnixMilli(stats.LastGCTime).Format(time.RFC3339)
	}
	return env.Print(c, res)
}

type gcResult struct {
	BytesReclaimed uint64 `json:"bytes_reclaimed" yaml:"bytes_reclaimed"`
	StoreSize      string `json:"store_size" yaml:"store_size"`
}

func systemGC(ctx context.Context, c *cli.Context, env *Env) error {
	if _, err := env.Store(ctx); err != nil {
		return err
	}

	reclaimed, err := env.engine.GC(ctx)
	if err != nil {
		return err
	}
	stats, err := env.engine.Stats(ctx)
	if err != nil {
		return err
	}
	return env.Print(c, gcResult{BytesReclaimed: reclaimed, StoreSize: formatBytes(stats.TotalSize)})
}

// formatBytes formats a byte count for display.
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

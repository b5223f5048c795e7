package command

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/otpslot-go/internal/cli/config"
	"github.com/yndnr/otpslot-go/internal/cli/repl"
	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/internal/infra/confloader"
	"github.com/yndnr/otpslot-go/internal/telemetry/logger"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Boot once and run commands interactively",
		Description: "All commands share one power-on: the session counter keeps " +
			"advancing until the shell exits. Changes to log.level in the config " +
			"file apply immediately.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write ~/.otpslot/history",
			},
		},
		Action: action(shellAction),
	}
}

func shellAction(ctx context.Context, c *cli.Context, env *Env) error {
	if env.interactive {
		return domain.ErrInvalidArgument.WithDetails("already in a shell")
	}
	if _, err := env.BootedDevice(ctx); err != nil {
		return err
	}
	env.interactive = true
	defer func() { env.interactive = false }()

	history := repl.NewHistory()
	if c.Bool("no-history") {
		history = repl.NewFileHistory("")
	} else if err := history.Load(); err != nil {
		logger.L(ctx).Warn("failed to load history", "error", err)
	}
	env.shutdown.OnShutdown(func(context.Context) error {
		return history.Save()
	})

	shellCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if env.ConfigPath != "" {
		if err := watchLogLevel(shellCtx, env, flagOverrides(c)); err != nil {
			logger.L(ctx).Warn("config watcher disabled", "error", err)
		}
	}
	go func() {
		env.shutdown.Wait(shellCtx)
		if shellCtx.Err() == nil {
			fmt.Fprintln(env.Stdout)
			os.Exit(130)
		}
	}()

	exec := func(ctx context.Context, args []string) error {
		if len(args) > 0 && args[0] == "shell" {
			return domain.ErrInvalidArgument.WithDetails("already in a shell")
		}
		app := newApp(env)
		return app.RunContext(ctx, append([]string{app.Name}, args...))
	}

	fmt.Fprintf(env.Stdout, "otpslot %s. Type 'help' for commands, 'exit' to quit.\n", c.App.Version)
	r := repl.New(exec,
		repl.WithIO(env.Stdin, env.Stdout),
		repl.WithHistory(history),
		repl.WithCommands(commandPaths(c.App.Commands, "")),
	)
	return r.Run(shellCtx)
}

// watchLogLevel applies log.level from the config file whenever it
// changes, until ctx ends. Flag overrides keep winning.
func watchLogLevel(ctx context.Context, env *Env, overrides map[string]any) error {
	watcher, err := confloader.NewWatcher(env.ConfigPath, confloader.WithWatcherLogger(env.Logger.Slog()))
	if err != nil {
		return err
	}

	watcher.OnChange(func(path string) {
		cfg, _, err := config.Load(path, overrides)
		if err != nil {
			env.Logger.Warn("ignoring invalid config change", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			env.Logger.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	go func() {
		watcher.Run(ctx)
		watcher.Close()
	}()
	return nil
}

// commandPaths lists "name" and "name sub" for every visible command.
func commandPaths(cmds []*cli.Command, prefix string) []string {
	var out []string
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		path := cmd.Name
		if prefix != "" {
			path = prefix + " " + cmd.Name
		}
		out = append(out, path)
		out = append(out, commandPaths(cmd.Subcommands, path)...)
	}
	return out
}

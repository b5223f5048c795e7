package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return newApp(nil)
}

// newApp builds the command tree. A non-nil env is shared with the
// caller, which also owns closing it; the shell uses this to run every
// input line against the same booted device.
func newApp(env *Env) *cli.App {
	app := &cli.App{
		Name:                 "otpslot",
		Usage:                "Yubico OTP compatible software token",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			InitCommand(),
			KeyCommand(),
			OTPCommand(),
			ShellCommand(),
			BackupCommand(),
			ConfigCommand(),
			SystemCommand(),
			VersionCommand(),
		},
		Metadata:  map[string]any{},
		Reader:    os.Stdin,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Before:    before,
		After:     after,
	}
	if env != nil {
		app.Metadata[metaEnv] = env
		app.Reader, app.Writer, app.ErrWriter = env.Stdin, env.Stdout, env.Stderr
		app.HideVersion = true
		// Unknown commands come back as cli.ExitCoder; report them
		// through the shell instead of exiting the process.
		app.ExitErrHandler = func(*cli.Context, error) {}
	}
	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.otpslot/config.yaml)",
			EnvVars: []string{"OTPSLOT_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Keyslot store directory",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// before installs the Env unless a parent already shared one.
func before(c *cli.Context) error {
	if _, ok := c.App.Metadata[metaEnv].(*Env); ok {
		return nil
	}
	env, err := newEnv(c)
	if err != nil {
		return err
	}
	c.App.Metadata[metaEnv] = env
	c.App.Metadata[metaOwnsEnv] = true
	return nil
}

// after closes the Env it created.
func after(c *cli.Context) error {
	if owns, _ := c.App.Metadata[metaOwnsEnv].(bool); !owns {
		return nil
	}
	env, err := envFrom(c)
	if err != nil {
		return nil
	}
	return env.Close()
}

// ExitCode maps an error to a process exit status: 2 for bad input or
// an unknown keyslot, 3 for a device that cannot issue or store more,
// 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case domain.ErrorClass(err) == domain.ClassInput,
		errors.Is(err, domain.ErrKeySlotNotFound):
		return 2
	case errors.Is(err, domain.ErrSessionExhausted),
		errors.Is(err, domain.ErrNoFreeKeySlot):
		return 3
	default:
		return 1
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/otpslot-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: action(func(_ context.Context, c *cli.Context, env *Env) error {
			return env.Print(c, buildinfo.Get())
		}),
	}
}

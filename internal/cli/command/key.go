package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
)

// KeyCommand returns the key subcommand group.
func KeyCommand() *cli.Command {
	return &cli.Command{
		Name:    "key",
		Aliases: []string{"keys"},
		Usage:   "Manage keyslots",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List enabled keyslots",
				Action:  action(keyList),
			},
			{
				Name:   "new",
				Usage:  "Create a key in the first free slot and show its secrets",
				Action: action(keyNew),
			},
			{
				Name:      "show",
				Usage:     "Show a keyslot",
				ArgsUsage: "INDEX",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "secrets",
						Aliases: []string{"s"},
						Usage:   "Also show the private id and AES key",
					},
				},
				Action: action(keyShow),
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a keyslot; later slots move down",
				ArgsUsage: "INDEX",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: action(keyDelete),
			},
			{
				Name:  "reset",
				Usage: "Delete every keyslot",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: action(keyReset),
			},
		},
	}
}

func keyList(ctx context.Context, c *cli.Context, env *Env) error {
	device, err := env.Device(ctx)
	if err != nil {
		return err
	}

	keys := device.Keys()
	if len(keys) == 0 && !env.Structured() {
		fmt.Fprintln(env.Stdout, "No keys. Create one with 'otpslot key new'.")
		return nil
	}
	if err := env.Print(c, keys); err != nil {
		return err
	}
	if !env.Structured() {
		status := device.Status()
		fmt.Fprintf(env.Stdout, "\nTotal: %d of %d slots\n", status.Enabled, status.Capacity)
	}
	return nil
}

func keyNew(ctx context.Context, c *cli.Context, env *Env) error {
	device, err := env.Device(ctx)
	if err != nil {
		return err
	}

	creds, err := device.NewKey(ctx)
	if err != nil {
		return err
	}
	if err := env.Print(c, creds); err != nil {
		return err
	}
	if !env.Structured() {
		fmt.Fprintln(env.Stdout, "\nRegister these values with your validation server now.")
	}
	return nil
}

func keyShow(ctx context.Context, c *cli.Context, env *Env) error {
	index, err := indexArg(c, 0)
	if err != nil {
		return err
	}
	device, err := env.Device(ctx)
	if err != nil {
		return err
	}

	if c.Bool("secrets") {
		creds, err := device.Secrets(ctx, index)
		if err != nil {
			return err
		}
		return env.Print(c, creds)
	}

	key, err := device.Key(index)
	if err != nil {
		return err
	}
	return env.Print(c, key)
}

func keyDelete(ctx context.Context, c *cli.Context, env *Env) error {
	index, err := indexArg(c, 0)
	if err != nil {
		return err
	}
	device, err := env.Device(ctx)
	if err != nil {
		return err
	}

	key, err := device.Key(index)
	if err != nil {
		return err
	}
	if !c.Bool("force") &&
		!env.Confirm(fmt.Sprintf("Delete key %d (%s)? It cannot be recovered without a backup.", index, key.PublicID)) {
		fmt.Fprintln(env.Stdout, "Cancelled.")
		return nil
	}

	if err := device.DeleteKey(ctx, index); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Key %d (%s) deleted.\n", index, key.PublicID)
	return nil
}

func keyReset(ctx context.Context, c *cli.Context, env *Env) error {
	device, err := env.Device(ctx)
	if err != nil {
		return err
	}

	n := device.Status().Enabled
	if !c.Bool("force") && !env.Confirm(fmt.Sprintf("Delete all %d keys?", n)) {
		fmt.Fprintln(env.Stdout, "Cancelled.")
		return nil
	}

	if err := device.ResetKeys(ctx); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "%d keys deleted.\n", n)
	return nil
}

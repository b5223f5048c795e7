package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/otpslot-go/internal/cli/output"
	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/internal/storage/backup"
	"github.com/yndnr/otpslot-go/internal/telemetry/logger"
	"github.com/yndnr/otpslot-go/pkg/crypto/adaptive"
	"github.com/yndnr/otpslot-go/pkg/modhex"
)

// BackupCommand returns the backup subcommand group.
func BackupCommand() *cli.Command {
	passphraseFlag := &cli.StringFlag{
		Name:    "passphrase-env",
		Aliases: []string{"p"},
		Usage:   "Name of the environment variable holding the backup passphrase (default: use the root seed)",
	}

	return &cli.Command{
		Name:  "backup",
		Usage: "Export and import the keyslots as an encrypted file",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Write an encrypted backup of all keyslots",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.StringFlag{
						Name:  "cipher",
						Usage: "aes-gcm or chacha20-poly1305 (default: security.backup_cipher)",
					},
				},
				Action: action(backupCreate),
			},
			{
				Name:      "restore",
				Usage:     "Replace all keyslots with the contents of a backup",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					passphraseFlag,
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: action(backupRestore),
			},
			{
				Name:      "inspect",
				Usage:     "Decrypt a backup and show what it holds",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{passphraseFlag},
				Action:    action(backupInspect),
			},
		},
	}
}

// keySource selects the passphrase from --passphrase-env or the root seed.
func keySource(c *cli.Context, env *Env) (backup.KeySource, error) {
	if name := c.String("passphrase-env"); name != "" {
		pass, ok := os.LookupEnv(name)
		if !ok || pass == "" {
			return backup.KeySource{}, domain.ErrMissingArgument.WithDetails(
				fmt.Sprintf("environment variable %s is empty", name))
		}
		return backup.KeySource{Passphrase: []byte(pass)}, nil
	}

	seed, err := env.Seed()
	if err != nil {
		return backup.KeySource{}, err
	}
	return backup.KeySource{Seed: seed}, nil
}

// withSpinner shows a spinner on stderr while a passphrase KDF runs.
func withSpinner[T any](env *Env, src backup.KeySource, msg string, fn func() (T, error)) (T, error) {
	if len(src.Passphrase) == 0 || env.Structured() {
		return fn()
	}
	s := output.NewSpinner(env.Stderr, msg)
	s.Start()
	v, err := fn()
	s.Stop()
	return v, err
}

func backupCreate(ctx context.Context, c *cli.Context, env *Env) error {
	path, err := pathArg(c, 0)
	if err != nil {
		return err
	}

	cipherName := c.String("cipher")
	if cipherName == "" {
		cipherName = env.Config.Security.BackupCipher
	}
	cipherType, err := adaptive.ParseType(cipherName)
	if err != nil {
		return domain.ErrInvalidArgument.WithDetails(err.Error())
	}

	src, err := keySource(c, env)
	if err != nil {
		return err
	}
	device, err := env.Device(ctx)
	if err != nil {
		return err
	}

	slots, capacity := device.Export()
	img := &backup.Image{
		CreatedAt: time.Now().UnixMilli(),
		Capacity:  capacity,
		Slots:     slots,
	}
	info, err := withSpinner(env, src, "Deriving backup key", func() (*backup.Info, error) {
		return backup.Write(path, img, src, cipherType)
	})
	if err != nil {
		return err
	}

	logger.L(ctx).Info("backup written", "path", info.Path, "slots", info.SlotCount, "kdf", info.KDF)
	return env.Print(c, info)
}

func backupRestore(ctx context.Context, c *cli.Context, env *Env) error {
	path, err := pathArg(c, 0)
	if err != nil {
		return err
	}
	src, err := keySource(c, env)
	if err != nil {
		return err
	}
	device, err := env.Device(ctx)
	if err != nil {
		return err
	}

	res, err := readBackup(env, path, src)
	if err != nil {
		return err
	}

	status := device.Status()
	if n := len(res.img.Slots); n > status.Capacity {
		return domain.ErrBackupCapacity.WithDetails(
			fmt.Sprintf("backup holds %d keys, store has %d slots", n, status.Capacity))
	}

	if !c.Bool("force") && !env.Confirm(fmt.Sprintf(
		"Replace %d current keys with %d keys from %s?", status.Enabled, len(res.img.Slots), path)) {
		fmt.Fprintln(env.Stdout, "Cancelled.")
		return nil
	}

	if err := device.RestoreKeys(ctx, res.img.Slots); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Restored %d keys from %s.\n", len(res.img.Slots), path)
	return nil
}

// opened is a decrypted backup file.
type opened struct {
	img  *backup.Image
	info *backup.Info
}

func readBackup(env *Env, path string, src backup.KeySource) (opened, error) {
	return withSpinner(env, src, "Deriving backup key", func() (opened, error) {
		img, info, err := backup.Read(path, src)
		return opened{img, info}, err
	})
}

type backupContents struct {
	backup.Info `yaml:",inline"`
	Capacity     int      `json:"capacity" yaml:"capacity"`
	PublicIDs    []string `json:"public_ids" yaml:"public_ids"`
}

func backupInspect(_ context.Context, c *cli.Context, env *Env) error {
	path, err := pathArg(c, 0)
	if err != nil {
		return err
	}
	src, err := keySource(c, env)
	if err != nil {
		return err
	}

	res, err := readBackup(env, path, src)
	if err != nil {
		return err
	}

	out := backupContents{Info: *res.info, Capacity: res.img.Capacity}
	for _, s := range res.img.Slots {
		out.PublicIDs = append(out.PublicIDs, modhex.Encode(s.PublicID[:]))
	}
	return env.Print(c, out)
}

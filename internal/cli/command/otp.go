package command

import (
	"context"

	"github.com/urfave/cli/v2"
)

// OTPCommand returns the otp command.
func OTPCommand() *cli.Command {
	return &cli.Command{
		Name:      "otp",
		Aliases:   []string{"type"},
		Usage:     "Generate the next OTP of a keyslot and type it",
		ArgsUsage: "INDEX",
		Description: "The token is typed to stdout followed by Enter (see output.submit " +
			"and output.keystroke_rate). With -o json or -o yaml it is printed as a record instead.",
		Action: action(otpAction),
	}
}

type otpResult struct {
	Index          int    `json:"index" yaml:"index"`
	OTP            string `json:"otp" yaml:"otp"`
	SessionCounter uint8  `json:"session_counter" yaml:"session_counter"`
}

func otpAction(ctx context.Context, c *cli.Context, env *Env) error {
	index, err := indexArg(c, 0)
	if err != nil {
		return err
	}
	device, err := env.BootedDevice(ctx)
	if err != nil {
		return err
	}

	if env.Structured() {
		token, err := device.GenerateOTP(ctx, index)
		if err != nil {
			return err
		}
		return env.Print(c, otpResult{Index: index, OTP: token, SessionCounter: device.SessionCount()})
	}

	_, err = device.TypeOTP(ctx, index)
	return err
}

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/otpslot-go/internal/cli/config"
	"github.com/yndnr/otpslot-go/internal/cli/output"
	"github.com/yndnr/otpslot-go/internal/core/derive"
	"github.com/yndnr/otpslot-go/internal/core/domain"
	"github.com/yndnr/otpslot-go/internal/core/service"
	"github.com/yndnr/otpslot-go/internal/infra/keyboard"
	"github.com/yndnr/otpslot-go/internal/infra/shutdown"
	"github.com/yndnr/otpslot-go/internal/storage"
	"github.com/yndnr/otpslot-go/internal/storage/keyslot"
	"github.com/yndnr/otpslot-go/internal/telemetry/logger"
	"github.com/yndnr/otpslot-go/internal/telemetry/metric"
)

const (
	metaEnv      = "env"
	metaOwnsEnv  = "ownsEnv"
	shutdownWait = 10 * time.Second
)

// Env is the state shared by the commands of one process: configuration,
// logging, metrics and the lazily opened device.
type Env struct {
	Config     *config.Config
	ConfigPath string
	Logger     logger.Logger
	Metrics    *metric.Registry

	// Stdin is buffered once so that prompts and the shell read
	// consecutive lines of the same stream.
	Stdin  *bufio.Reader
	Stdout io.Writer
	Stderr io.Writer

	shutdown    *shutdown.Handler
	engine      *storage.BadgerEngine
	store       *keyslot.Store
	device      *service.Device
	interactive bool
}

// newEnv loads the configuration with flag overrides and sets up
// logging and metrics. Nothing is opened on disk yet.
func newEnv(c *cli.Context) (*Env, error) {
	cfg, path, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	env := &Env{
		Config:     cfg,
		ConfigPath: path,
		Logger:     log,
		Metrics:    metric.NewRegistry(),
		Stdin:      bufio.NewReader(c.App.Reader),
		Stdout:     c.App.Writer,
		Stderr:     c.App.ErrWriter,
		shutdown:   shutdown.NewHandler(shutdownWait),
	}

	if textfile := cfg.Metrics.Textfile; textfile != "" {
		env.shutdown.OnShutdown(func(context.Context) error {
			if err := env.Metrics.WriteToTextfile(textfile); err != nil {
				return fmt.Errorf("write metrics textfile: %w", err)
			}
			return nil
		})
	}
	return env, nil
}

// flagOverrides maps global flags that were set explicitly to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := map[string]any{}
	if c.IsSet("data-dir") {
		overrides["storage.data_dir"] = c.String("data-dir")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("output") {
		overrides["output.format"] = c.String("output")
	}
	return overrides
}

// envFrom returns the Env installed by the root Before hook.
func envFrom(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[metaEnv].(*Env); ok && env != nil {
		return env, nil
	}
	return nil, domain.ErrInternal.WithDetails("command runtime not initialised")
}

// Close runs the shutdown hooks: closes the store and writes metrics.
func (e *Env) Close() error {
	return e.shutdown.Shutdown()
}

// Seed returns the root seed from security.master_seed or the seed file.
func (e *Env) Seed() ([]byte, error) {
	if s := e.Config.Security.MasterSeed; s != "" {
		return derive.ParseSeed(s)
	}
	seed, err := derive.LoadSeedFile(e.Config.Security.MasterSeedFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrInvalidRootSecret.WithDetails(
			fmt.Sprintf("no seed at %s; run 'otpslot init'", e.Config.Security.MasterSeedFile))
	}
	return seed, err
}

// Store opens the keyslot store, formatting it on first use.
func (e *Env) Store(ctx context.Context) (*keyslot.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	kvCfg := storage.DefaultKVConfig(e.Config.Storage.DataDir)
	kvCfg.Badger.SyncWrites = e.Config.Storage.SyncWrites
	engine, err := storage.NewBadgerEngine(kvCfg, e.Logger.Slog())
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	e.shutdown.OnShutdown(func(context.Context) error {
		return engine.Close()
	})
	engine.RegisterMetrics(e.Metrics.Registerer())

	store, err := keyslot.Open(ctx, engine, e.Config.Storage.Capacity, e.Logger.Slog())
	if err != nil {
		return nil, err
	}
	if err := e.Metrics.RegisterSlots(store); err != nil {
		return nil, err
	}

	e.engine = engine
	e.store = store
	return store, nil
}

// Device wires the device over the store and the root seed.
func (e *Env) Device(ctx context.Context) (*service.Device, error) {
	if e.device != nil {
		return e.device, nil
	}

	store, err := e.Store(ctx)
	if err != nil {
		return nil, err
	}
	seed, err := e.Seed()
	if err != nil {
		return nil, err
	}
	root, err := derive.NewHDRoot(seed)
	if err != nil {
		return nil, domain.ErrInvalidRootSecret.WithCause(err)
	}

	var sink keyboard.Sink = keyboard.NewWriterSink(e.Stdout, e.Config.Output.KeystrokeRate)
	if !e.Config.Output.Submit {
		sink = keyboard.WithoutEnter(sink)
	}

	device, err := service.NewDevice(service.DeviceConfig{
		Store:   store,
		Deriver: derive.NewDeriver(root),
		Sink:    sink,
		Metrics: e.Metrics,
		Logger:  e.Logger,
	})
	if err != nil {
		return nil, err
	}
	e.device = device
	return device, nil
}

// BootedDevice returns the device after its power-on boot.
func (e *Env) BootedDevice(ctx context.Context) (*service.Device, error) {
	device, err := e.Device(ctx)
	if err != nil {
		return nil, err
	}
	if err := device.Boot(ctx); err != nil {
		return nil, err
	}
	return device, nil
}

// Print writes data in the configured output format.
func (e *Env) Print(c *cli.Context, data any) error {
	format, err := output.ParseFormat(e.Config.Output.Format)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, c.Bool("wide")).Format(e.Stdout, data)
}

// Structured reports whether output goes to a machine-readable format.
func (e *Env) Structured() bool {
	format, _ := output.ParseFormat(e.Config.Output.Format)
	return format != output.FormatTable
}

// Confirm asks a yes/no question on stdin. Anything but y/yes is no.
func (e *Env) Confirm(question string) bool {
	fmt.Fprintf(e.Stdout, "%s [y/N]: ", question)
	line, _ := e.Stdin.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// action wraps a command body with the Env and a request scoped context.
func action(fn func(ctx context.Context, c *cli.Context, env *Env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := envFrom(c)
		if err != nil {
			return err
		}

		ctx := c.Context
		if logger.RequestIDFromContext(ctx) == "" {
			ctx = logger.WithRequestID(ctx, logger.NewRequestID())
		}
		ctx = logger.WithCommand(ctx, c.Command.FullName())
		ctx = logger.WithLogger(ctx, env.Logger)

		start := time.Now()
		err = fn(ctx, c, env)
		if err != nil {
			logger.L(ctx).Debug("command failed", "error", err, "code", domain.GetErrorCode(err))
			return err
		}
		logger.L(ctx).Debug("command finished", "duration", time.Since(start))
		return nil
	}
}

// indexArg parses the keyslot index argument at position n.
func indexArg(c *cli.Context, n int) (int, error) {
	arg := c.Args().Get(n)
	if arg == "" {
		return 0, domain.ErrMissingArgument.WithDetails("INDEX required")
	}
	index, err := strconv.Atoi(arg)
	if err != nil || index < 0 {
		return 0, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("invalid index %q", arg))
	}
	return index, nil
}

// pathArg returns the file argument at position n, cleaned.
func pathArg(c *cli.Context, n int) (string, error) {
	arg := c.Args().Get(n)
	if arg == "" {
		return "", domain.ErrMissingArgument.WithDetails("FILE required")
	}
	return filepath.Clean(config.ExpandHome(arg)), nil
}

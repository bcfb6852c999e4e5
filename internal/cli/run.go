package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/timberwolf/internal/config"
	"github.com/roach88/timberwolf/internal/demo"
	"github.com/roach88/timberwolf/internal/game"
	"github.com/roach88/timberwolf/internal/logsink"
	"github.com/roach88/timberwolf/internal/store"
	"github.com/roach88/timberwolf/internal/timing"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   string
	FPS      float64
	TPS      float64
	Duration time.Duration
	Ticks    int
	Database string
	Overlay  bool

	// IDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to game.UUIDv7Generator.
	IDGenerator game.IDGenerator

	// TimeSource allows overriding the system clock (for testing).
	TimeSource timing.TimeSource
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

// newRunCommand binds the run command's flags to opts. Tests use it to set
// the ID generator and time source.
func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the demo layer stack",
		Long: `Run the demo layer stack: a loading screen that swaps itself for a
title screen, with an optional frame rate HUD on top.

Settings come from --config (or the built-in defaults) and may be
overridden by flags. The run ends when the title screen's tick budget is
spent, when --duration elapses, or on Ctrl-C. With --db (or store.path)
the run report is recorded for "timberwolf history".

Examples:
  timberwolf run
  timberwolf run --config game.yaml --db ./runs.db
  timberwolf run --fps 30 --tps 10 --duration 5s --overlay`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGame(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to YAML run configuration")
	cmd.Flags().Float64Var(&opts.FPS, "fps", 0, "render rate override (frames per second)")
	cmd.Flags().Float64Var(&opts.TPS, "tps", 0, "update rate override (ticks per second)")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "stop the run after this long (0 = no limit)")
	cmd.Flags().IntVar(&opts.Ticks, "ticks", 0, "title screen tick budget override (0 = run until stopped)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Overlay, "overlay", false, "show the frame rate HUD")

	return cmd
}

func runGame(opts *RunOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := configureSlog(opts.Verbose, cmd.ErrOrStderr())

	cfg := config.Default()
	if opts.Config != "" {
		formatter.VerboseLog("Loading %s", opts.Config)
		loaded, err := config.Load(opts.Config)
		if err != nil {
			var ce *config.Error
			if errors.As(err, &ce) {
				return outputValidationErrors(formatter, ce.Errors)
			}
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot read configuration", err)
		}
		cfg = *loaded
	}
	applyRunFlags(&cfg, opts, cmd)
	if errs := cfg.Validate(); len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	severity := cfg.Log.Severity()
	if opts.Verbose {
		severity = logsink.SeverityDebug
	}
	log := logsink.New(logsink.MinSeverity(severity, logsink.NewSlogReceiver(logger)))
	if cfg.Log.Console {
		errw := cmd.ErrOrStderr()
		log.AddReceiver(logsink.MinSeverity(severity, logsink.NewWriterReceiver(errw, errw)))
	}
	if cfg.Log.File != "" {
		fileLog, err := logsink.NewFileReceiver(cfg.Log.File)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot open log file", err)
		}
		defer fileLog.Close()
		log.AddReceiver(logsink.MinSeverity(severity, fileLog))
	}

	gameOpts := []game.Option{game.WithLog(log)}
	if opts.IDGenerator != nil {
		gameOpts = append(gameOpts, game.WithIDGenerator(opts.IDGenerator))
	}
	if opts.TimeSource != nil {
		gameOpts = append(gameOpts, game.WithTimeSource(opts.TimeSource))
	}

	if cfg.Store.Path != "" {
		slog.Debug("opening database", "path", cfg.Store.Path)
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		gameOpts = append(gameOpts, game.WithRecorder(st))
	}

	g := game.New(cfg.Name, gameOpts...)
	demo.Build(g.Stack(), demo.Options{
		Log:          log,
		LoadingTicks: cfg.Demo.LoadingTicks,
		TitleTicks:   cfg.Demo.TitleTicks,
		Overlay:      cfg.Demo.Overlay,
		TimeSource:   opts.TimeSource,
	})

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()
	if opts.Duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, opts.Duration)
		defer cancelTimeout()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	formatter.VerboseLog("Running %s: render %g/s, update %g/s", cfg.Name, cfg.Render.Rate, cfg.Update.Rate)
	report, runErr := g.RunConfig(ctx, cfg.Render.LoopConfig(), cfg.Update.LoopConfig())
	if runErr != nil {
		return outputRunFailure(formatter, report, runErr)
	}

	if formatter.Format == "json" {
		return formatter.Success(newRunView(report))
	}
	writeRunDetail(formatter.Writer, report)
	return nil
}

// applyRunFlags copies explicitly set flags over the configuration.
func applyRunFlags(cfg *config.Config, opts *RunOptions, cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("fps") {
		cfg.Render.Rate = opts.FPS
	}
	if flags.Changed("tps") {
		cfg.Update.Rate = opts.TPS
	}
	if flags.Changed("ticks") {
		cfg.Demo.TitleTicks = opts.Ticks
	}
	if flags.Changed("db") {
		cfg.Store.Path = opts.Database
	}
	if flags.Changed("overlay") {
		cfg.Demo.Overlay = opts.Overlay
	}
}

// outputRunFailure reports a failed run. A panicking loop is a run failure
// (exit 1); anything else, such as a recording error, is a command error.
func outputRunFailure(formatter *OutputFormatter, report game.RunReport, err error) error {
	code, exit := ErrCodeDatabase, ExitCommandError
	if game.IsLoopError(err) {
		code, exit = ErrCodeRunFailed, ExitFailure
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: err.Error(),
			},
		}
		if report.ID != "" {
			response.Data = newRunView(report)
		}
		if encErr := formatter.encode(response); encErr != nil {
			return encErr
		}
		return WrapExitError(exit, "run failed", err)
	}

	if report.ID != "" {
		writeRunDetail(formatter.Writer, report)
		fmt.Fprintln(formatter.Writer)
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(exit, "run failed", err)
}

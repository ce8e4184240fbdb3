package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/subproc/internal/config"
	"github.com/Paintersrp/subproc/internal/coordinator"
	"github.com/Paintersrp/subproc/internal/logging"
	"github.com/Paintersrp/subproc/internal/reporter"
	"github.com/Paintersrp/subproc/internal/runtime"
	"github.com/Paintersrp/subproc/internal/runtime/process"
)

// exitInterrupted is the exit status used after a user interrupt.
const exitInterrupted = 130

type options struct {
	configPath    string
	timeout       time.Duration
	grace         time.Duration
	interval      time.Duration
	shutdownGrace time.Duration
	logLevel      string
	logFormat     string
	logOutput     string
	metricsAddr   string
}

// NewRootCmd returns the consumer command.
func NewRootCmd() *cobra.Command {
	return newRootCommand(os.Getenv, run)
}

type runFunc func(ctx stdcontext.Context, stdout, stderr io.Writer, cfg *config.Config) error

func newRootCommand(getenv func(string) string, runFn runFunc) *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:   "consumer [flags] [-- command [args...]]",
		Short: "Run a child process under a deadline beside a periodic reporter",
		Long: `consumer starts a child process (by default the producer executable next to
it) and waits for it to finish, logging an iteration counter in the meantime.
If the child misses the deadline it is asked to terminate and given a short
grace period; it is never killed forcefully. Captured output is printed only
when the child finishes in time.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &opts, args, getenv)
			if err != nil {
				return err
			}
			return runFn(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML configuration file")
	flags.DurationVar(&opts.timeout, "timeout", config.DefaultTimeout, "Deadline for the child to finish")
	flags.DurationVar(&opts.grace, "grace", config.DefaultGrace, "Wait after the termination request before giving up")
	flags.DurationVar(&opts.interval, "interval", config.DefaultInterval, "Pause between reporter iterations")
	flags.DurationVar(&opts.shutdownGrace, "shutdown-grace", config.DefaultShutdownGrace, "Wait for cancelled units before exiting")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json, auto)")
	flags.StringVar(&opts.logOutput, "log-output", "stderr", "Stream logs are written to (stderr, stdout)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (disabled when empty)")

	root.SilenceUsage = true
	root.SilenceErrors = true
	return root
}

// Execute runs the consumer entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, stdcontext.Canceled) {
			os.Exit(exitInterrupted)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig layers defaults, the config file, the environment, explicit
// flags and positional arguments, in that order.
func resolveConfig(cmd *cobra.Command, opts *options, args []string, getenv func(string) string) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout.Duration = opts.timeout
	}
	if flags.Changed("grace") {
		cfg.Grace.Duration = opts.grace
	}
	if flags.Changed("interval") {
		cfg.Interval.Duration = opts.interval
	}
	if flags.Changed("shutdown-grace") {
		cfg.ShutdownGrace.Duration = opts.shutdownGrace
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
	if flags.Changed("log-output") {
		cfg.Logging.Output = opts.logOutput
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if len(args) > 0 {
		cfg.Producer.Command = append([]string(nil), args...)
	}
	if len(cfg.Producer.Command) == 0 {
		command, err := siblingProducer()
		if err != nil {
			return nil, err
		}
		cfg.Producer.Command = command
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx stdcontext.Context, stdout, stderr io.Writer, cfg *config.Config) error {
	logOut := stderr
	if strings.EqualFold(cfg.Logging.Output, "stdout") {
		logOut = stdout
	}
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, logOut)

	if cfg.Metrics.Addr != "" {
		stopMetrics, err := serveMetrics(ctx, cfg.Metrics.Addr, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	runner := process.New(runtime.Spec{
		Command: cfg.Producer.Command,
		Dir:     cfg.Producer.Workdir,
		Env:     cfg.Producer.Env,
		Timeout: cfg.Timeout.Duration,
		Grace:   cfg.Grace.Duration,
	}, process.WithLogger(logger))

	rep := reporter.New(
		reporter.WithInterval(cfg.Interval.Duration),
		reporter.WithLogger(logger),
	)

	return coordinator.New(rep, runner,
		coordinator.WithOutput(stdout),
		coordinator.WithShutdownGrace(cfg.ShutdownGrace.Duration),
		coordinator.WithLogger(logger),
	).Run(ctx)
}

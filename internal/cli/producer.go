package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// executable is swapped in tests.
var executable = os.Executable

// NewProducerCmd returns the producer command, the default child of the
// consumer.
func NewProducerCmd() *cobra.Command {
	var (
		message    string
		stderrText string
		sleep      time.Duration
		ignoreTerm bool
	)

	cmd := &cobra.Command{
		Use:   "producer",
		Short: "Child program supervised by consumer",
		Long: `producer optionally sleeps, then prints a message to stdout and, if given,
a second message to stderr. With --ignore-term it ignores interrupt and
termination requests, which lets the consumer's give-up path be observed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ignoreTerm {
				signal.Ignore(os.Interrupt, syscall.SIGTERM)
			}
			if sleep > 0 {
				time.Sleep(sleep)
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			if stderrText != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), stderrText)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&message, "message", "hello", "Text written to stdout")
	flags.StringVar(&stderrText, "stderr", "", "Text written to stderr (nothing when empty)")
	flags.DurationVar(&sleep, "sleep", 0, "Delay before writing output and exiting")
	flags.BoolVar(&ignoreTerm, "ignore-term", false, "Ignore interrupt and termination requests")

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

// ExecuteProducer runs the producer entrypoint.
func ExecuteProducer() {
	if err := NewProducerCmd().ExecuteContext(stdcontext.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// siblingProducer returns the command for the producer executable installed
// next to the running binary.
func siblingProducer() ([]string, error) {
	exe, err := executable()
	if err != nil {
		return nil, fmt.Errorf("locate producer: %w", err)
	}
	name := "producer"
	if goruntime.GOOS == "windows" {
		name += ".exe"
	}
	return []string{filepath.Join(filepath.Dir(exe), name)}, nil
}

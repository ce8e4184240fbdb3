// Package coordinator runs the periodic reporter and the supervised child
// side by side and shuts down whichever is still running once the other one
// finishes.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Paintersrp/subproc/internal/logging"
	"github.com/Paintersrp/subproc/internal/runtime"
	"github.com/Paintersrp/subproc/internal/task"
)

// DefaultShutdownGrace bounds how long cancelled units get to return.
const DefaultShutdownGrace = 200 * time.Millisecond

// Unit is a long running piece of work that stops when ctx is done.
type Unit interface {
	Run(ctx context.Context) error
}

// Coordinator owns the two units of a run.
type Coordinator struct {
	reporter         Unit
	runner           runtime.Runner
	out              io.Writer
	shutdownGrace    time.Duration
	terminationGrace time.Duration
	logger           *slog.Logger
}

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithOutput sets where captured child output is printed.
func WithOutput(w io.Writer) Option {
	return func(c *Coordinator) {
		if w != nil {
			c.out = w
		}
	}
}

// WithShutdownGrace sets how long cancelled units are waited for.
func WithShutdownGrace(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.shutdownGrace = d
		}
	}
}

// WithTerminationGrace sets how long the runner may wait for a child to obey
// a termination request. When the parent context is cancelled the shutdown
// grace is extended by this amount so the runner can finish that wait.
func WithTerminationGrace(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.terminationGrace = d
		}
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type specProvider interface {
	Spec() runtime.Spec
}

// New constructs a Coordinator for reporter and runner.
func New(reporter Unit, runner runtime.Runner, opts ...Option) *Coordinator {
	c := &Coordinator{
		reporter:      reporter,
		runner:        runner,
		out:           os.Stdout,
		shutdownGrace: DefaultShutdownGrace,
		logger:        logging.Discard(),
	}
	if s, ok := runner.(specProvider); ok {
		c.terminationGrace = s.Spec().Grace
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.For(c.logger, "coordinator")
	return c
}

// Run starts both units and blocks until one of them finishes. The other is
// then cancelled and joined for at most the shutdown grace period; a unit
// that is still running afterwards is abandoned. If ctx itself was cancelled
// the join also covers the termination grace, so the child's termination
// sequence completes before Run returns.
//
// The first non-cancellation error of a finished unit is returned. If ctx
// was cancelled and no unit failed otherwise, ctx.Err() is returned.
func (c *Coordinator) Run(ctx context.Context) error {
	tasks := []*task.Task{
		task.Go(ctx, "reporter", c.reporter.Run),
		task.Go(ctx, "supervisor", c.supervise),
	}

	first := task.WaitFirst(tasks...)
	c.logger.Debug("unit finished", "unit", first.Name())

	wait := c.shutdownGrace
	if ctx.Err() != nil {
		wait += c.terminationGrace
	}

	pending := task.CancelPending(tasks...)
	if !task.Join(wait, pending...) {
		var names []string
		for _, t := range pending {
			if !t.Finished() {
				names = append(names, t.Name())
			}
		}
		c.logger.Info(fmt.Sprintf("cleanup did not finish within %s", wait), "pending", names)
	}

	for _, t := range tasks {
		if !t.Finished() {
			continue
		}
		if err := t.Err(); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return ctx.Err()
}

func (c *Coordinator) supervise(ctx context.Context) error {
	res, err := c.runner.Run(ctx)
	if err != nil {
		return err
	}
	if res.Outcome != runtime.OutcomeCompleted {
		return nil
	}
	return PrintResult(c.out, res)
}

// PrintResult writes the captured output banners of a completed run. The
// stderr banner is omitted when the child wrote nothing to stderr.
func PrintResult(w io.Writer, res runtime.Result) error {
	if _, err := fmt.Fprintln(w, "--------------stdout:\n"+res.Stdout); err != nil {
		return err
	}
	if res.Stderr == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, "--------------stderr:\n"+res.Stderr)
	return err
}

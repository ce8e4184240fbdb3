package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Paintersrp/subproc/internal/logging"
	"github.com/Paintersrp/subproc/internal/metrics"
	"github.com/Paintersrp/subproc/internal/runtime"
)

const (
	// DefaultTimeout is the deadline used when runtime.Spec leaves it zero.
	DefaultTimeout = 15 * time.Second
	// DefaultGrace is the post-termination wait used when runtime.Spec does not
	// set one.
	DefaultGrace = time.Second
)

var (
	// ErrNoCommand is returned when runtime.Spec names no command.
	ErrNoCommand = errors.New("process: command is required")
	// ErrInvalidOutput is returned when captured output is not UTF-8 text.
	ErrInvalidOutput = errors.New("process: captured output is not valid UTF-8")
)

// Runner spawns and supervises a single child process per Run call.
type Runner struct {
	spec      runtime.Spec
	logger    *slog.Logger
	terminate func(*os.Process) error
}

var _ runtime.Runner = (*Runner)(nil)

// Option customises a Runner.
type Option func(*Runner)

// WithLogger sets the logger supervision events are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Runner for spec. Zero durations take the package
// defaults.
func New(spec runtime.Spec, opts ...Option) *Runner {
	if spec.Timeout <= 0 {
		spec.Timeout = DefaultTimeout
	}
	if spec.Grace <= 0 {
		spec.Grace = DefaultGrace
	}
	spec.Command = append([]string(nil), spec.Command...)

	r := &Runner{
		spec:      spec,
		logger:    logging.Discard(),
		terminate: requestTermination,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.For(r.logger, "supervisor")
	return r
}

// Spec returns the effective spec after defaults were applied.
func (r *Runner) Spec() runtime.Spec {
	return r.spec
}

// Run starts the child and waits for it up to the configured deadline.
//
// If the child exits in time its stdout and stderr are read to EOF, decoded,
// trimmed and returned with OutcomeCompleted; a non-zero exit status is
// reported through Result.ExitCode only. If the deadline expires, or ctx is
// cancelled first, the child receives one graceful termination request and
// Run waits at most the grace period for the process itself to exit. Output is
// discarded on that path and the child is never killed. Cancellation is
// reported as ctx.Err() after the termination sequence has run.
func (r *Runner) Run(ctx context.Context) (runtime.Result, error) {
	if len(r.spec.Command) == 0 || r.spec.Command[0] == "" {
		return runtime.Result{}, ErrNoCommand
	}
	if err := ctx.Err(); err != nil {
		return runtime.Result{}, err
	}

	runID := uuid.NewString()
	log := r.logger.With("run", runID)

	cmd := exec.Command(r.spec.Command[0], r.spec.Command[1:]...)
	cmd.Dir = r.spec.Dir
	cmd.Env = buildEnv(os.Environ(), r.spec.Env)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return runtime.Result{RunID: runID}, fmt.Errorf("stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		_ = stdoutPipe.Close()
		return runtime.Result{RunID: runID}, fmt.Errorf("stderr pipe: %w", err)
	}
	// Closing the read ends releases readers still blocked on a pipe that a
	// descendant of the child keeps open.
	defer stdoutPipe.Close()
	defer stderrPipe.Close()

	configureCmdSysProcAttr(cmd)

	log.Debug("spawning child", "cmd", logging.RedactSecrets(strings.Join(r.spec.Command, " ")))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return runtime.Result{RunID: runID}, fmt.Errorf("start child %s: %w", r.spec.Command[0], err)
	}

	res := runtime.Result{RunID: runID, PID: cmd.Process.Pid, ExitCode: -1}
	log.Info("started", "pid", res.PID)

	var stdout, stderr bytes.Buffer
	var readers sync.WaitGroup
	readers.Add(2)
	go drain(&readers, &stdout, stdoutPipe)
	go drain(&readers, &stderr, stderrPipe)
	drained := make(chan struct{})
	go func() {
		readers.Wait()
		close(drained)
	}()

	// The exit signal comes from the process itself rather than cmd.Wait,
	// which would also block until every holder of the pipes has closed them.
	exit := &exitStatus{done: make(chan struct{})}
	go func() {
		exit.state, exit.err = cmd.Process.Wait()
		close(exit.done)
	}()

	deadline := time.NewTimer(r.spec.Timeout)
	defer deadline.Stop()

	exited, outputDone := exit.done, drained
	for exited != nil || outputDone != nil {
		select {
		case <-exited:
			exited = nil
		case <-outputDone:
			outputDone = nil

		case <-deadline.C:
			log.Info(fmt.Sprintf("child process didn't return within %.2f seconds", r.spec.Timeout.Seconds()))
			res.Outcome = r.awaitTermination(log, cmd.Process, exit.done)
			res.Duration = time.Since(start)
			metrics.ObserveChildRun(res.Outcome.String(), res.Duration)
			return res, nil

		case <-ctx.Done():
			log.Info("cancelled while waiting for child process")
			res.Outcome = r.awaitTermination(log, cmd.Process, exit.done)
			res.Duration = time.Since(start)
			metrics.ObserveChildRun(res.Outcome.String(), res.Duration)
			return res, ctx.Err()
		}
	}

	res.Duration = time.Since(start)
	if err := collect(&res, exit, stdout.Bytes(), stderr.Bytes()); err != nil {
		return res, err
	}
	log.Debug("child exited", "exit_code", res.ExitCode, "elapsed", res.Duration)
	metrics.ObserveChildRun(res.Outcome.String(), res.Duration)
	return res, nil
}

type exitStatus struct {
	done  chan struct{}
	state *os.ProcessState
	err   error
}

func drain(wg *sync.WaitGroup, dst *bytes.Buffer, src io.Reader) {
	defer wg.Done()
	_, _ = io.Copy(dst, src)
}

// awaitTermination sends the graceful termination request and waits for the
// child process to exit for at most the grace period. A child that has
// already exited counts as having obeyed.
func (r *Runner) awaitTermination(log *slog.Logger, proc *os.Process, exited <-chan struct{}) runtime.Outcome {
	if err := r.terminate(proc); err != nil {
		log.Warn("termination request failed", "err", err)
	}
	metrics.IncTerminationRequest()
	log.Info("kindly asked child process to die, waiting for reaction")

	grace := time.NewTimer(r.spec.Grace)
	defer grace.Stop()

	select {
	case <-exited:
		log.Info("child process obeyed the order")
		return runtime.OutcomeTerminated
	case <-grace.C:
		log.Info("child not willing to die, nothing more will be attempted")
		return runtime.OutcomeUnconfirmed
	}
}

func collect(res *runtime.Result, exit *exitStatus, stdout, stderr []byte) error {
	if exit.err != nil {
		return fmt.Errorf("wait child: %w", exit.err)
	}
	res.ExitCode = exit.state.ExitCode()

	out, err := decodeOutput("stdout", stdout)
	if err != nil {
		return err
	}
	errOut, err := decodeOutput("stderr", stderr)
	if err != nil {
		return err
	}
	res.Outcome = runtime.OutcomeCompleted
	res.Stdout = out
	res.Stderr = errOut
	return nil
}

func decodeOutput(stream string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", ErrInvalidOutput, stream)
	}
	return strings.TrimSpace(string(data)), nil
}

func buildEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	env := append([]string(nil), base...)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, overrides[k]))
	}
	return env
}

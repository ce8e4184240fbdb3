//go:build !windows

package coordinator

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/subproc/internal/logging"
	"github.com/Paintersrp/subproc/internal/reporter"
	"github.com/Paintersrp/subproc/internal/runtime"
	"github.com/Paintersrp/subproc/internal/runtime/process"
)

func TestEndToEndChildPrintsHello(t *testing.T) {
	var out bytes.Buffer
	var logs syncBuffer
	logger := logging.New(logging.Config{}, &logs)

	runner := process.New(runtime.Spec{
		Command: []string{"/bin/sh", "-c", "sleep 0.1; echo hello"},
		Timeout: 15 * time.Second,
	}, process.WithLogger(logger))
	rep := reporter.New(reporter.WithLogger(logger))

	err := New(rep, runner, WithOutput(&out), WithLogger(logger)).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, "--------------stdout:\nhello\n", out.String())
	require.NotContains(t, out.String(), "stderr:")
	require.Contains(t, logs.String(), "reporter: iteration number: 0")
}

func TestEndToEndChildOutlivesDeadline(t *testing.T) {
	var out bytes.Buffer
	var logs syncBuffer
	logger := logging.New(logging.Config{}, &logs)

	runner := process.New(runtime.Spec{
		Command: []string{"/bin/sh", "-c", "echo too-late; sleep 30"},
		Timeout: 300 * time.Millisecond,
		Grace:   time.Second,
	}, process.WithLogger(logger))
	rep := reporter.New(reporter.WithLogger(logger), reporter.WithInterval(50*time.Millisecond))

	err := New(rep, runner, WithOutput(&out), WithLogger(logger)).Run(context.Background())

	require.NoError(t, err)
	require.Empty(t, out.String())

	text := logs.String()
	timeoutIdx := strings.Index(text, "child process didn't return within 0.30 seconds")
	obeyedIdx := strings.Index(text, "child process obeyed the order")
	require.True(t, timeoutIdx >= 0 && obeyedIdx > timeoutIdx, "unexpected logs:\n%s", text)
}

func TestEndToEndParentCancellationRunsTerminationSequence(t *testing.T) {
	var logs syncBuffer
	logger := logging.New(logging.Config{}, &logs)

	runner := process.New(runtime.Spec{
		Command: []string{"/bin/sh", "-c", "trap '' TERM; sleep 3"},
		Timeout: 15 * time.Second,
		Grace:   300 * time.Millisecond,
	}, process.WithLogger(logger))
	rep := reporter.New(reporter.WithLogger(logger), reporter.WithInterval(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(150*time.Millisecond, cancel)

	err := New(rep, runner, WithOutput(&bytes.Buffer{}), WithLogger(logger)).Run(ctx)
	t.Cleanup(func() { killChildren(logs.String()) })

	require.ErrorIs(t, err, context.Canceled)
	text := logs.String()
	askedIdx := strings.Index(text, "kindly asked child process to die, waiting for reaction")
	gaveUpIdx := strings.Index(text, "child not willing to die, nothing more will be attempted")
	require.True(t, askedIdx >= 0 && gaveUpIdx > askedIdx, "unexpected logs:\n%s", text)
	require.NotContains(t, text, "cleanup did not finish")
}

// killChildren reaps process groups started during a test from their
// "started pid=N" log lines.
func killChildren(logs string) {
	for _, line := range strings.Split(logs, "\n") {
		_, rest, ok := strings.Cut(line, "pid=")
		fields := strings.Fields(rest)
		if !ok || len(fields) == 0 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err == nil && pid > 0 {
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		}
	}
}

package reporter

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/subproc/internal/logging"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunEmitsSequentialCounterUntilCancelled(t *testing.T) {
	const ticks = 5

	var (
		mu   sync.Mutex
		seen []int
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := New(
		WithInterval(5*time.Millisecond),
		WithObserver(func(i int) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, i)
			if len(seen) == ticks {
				cancel()
			}
		}),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		require.Fail(t, "reporter did not stop after cancellation")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}

func TestRunDoesNotReturnOnItsOwn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(WithInterval(time.Millisecond))

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	select {
	case err := <-errCh:
		require.Failf(t, "reporter returned unexpectedly", "err: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestRunLogsIterations(t *testing.T) {
	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())

	r := New(
		WithInterval(time.Millisecond),
		WithLogger(logging.New(logging.Config{Format: "text"}, &out)),
		WithObserver(func(i int) {
			if i == 2 {
				cancel()
			}
		}),
	)
	require.ErrorIs(t, r.Run(ctx), context.Canceled)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Equal(t, []string{
		"reporter: iteration number: 0",
		"reporter: iteration number: 1",
		"reporter: iteration number: 2",
	}, lines)
}

func TestRunRestartsCounterPerCall(t *testing.T) {
	var first []int
	r := New(WithInterval(time.Millisecond))

	for round := 0; round < 2; round++ {
		first = first[:0]
		ctx, cancel := context.WithCancel(context.Background())
		r.observe = func(i int) {
			first = append(first, i)
			if i == 1 {
				cancel()
			}
		}
		require.ErrorIs(t, r.Run(ctx), context.Canceled)
		require.Equal(t, []int{0, 1}, first)
	}
}

func TestRunWithCancelledContextEmitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	r := New(WithObserver(func(int) { called = true }))

	require.ErrorIs(t, r.Run(ctx), context.Canceled)
	require.False(t, called)
}

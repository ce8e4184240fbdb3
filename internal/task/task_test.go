package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func blockUntilCancelled(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWaitFirstReturnsEarliestFinisher(t *testing.T) {
	slow := Go(context.Background(), "slow", blockUntilCancelled)
	fast := Go(context.Background(), "fast", func(context.Context) error { return nil })
	t.Cleanup(slow.Cancel)

	first := WaitFirst(slow, fast)

	require.Same(t, fast, first)
	require.NoError(t, first.Err())
	require.False(t, slow.Finished())
}

func TestWaitFirstWithoutTasks(t *testing.T) {
	require.Nil(t, WaitFirst())
}

func TestCancelPendingSkipsFinishedTasks(t *testing.T) {
	boom := errors.New("boom")
	done := Go(context.Background(), "done", func(context.Context) error { return boom })
	<-done.Done()
	running := Go(context.Background(), "running", blockUntilCancelled)

	pending := CancelPending(done, running)

	require.Equal(t, []*Task{running}, pending)
	require.True(t, Join(time.Second, pending...))
	require.ErrorIs(t, running.Err(), context.Canceled)
	require.ErrorIs(t, done.Err(), boom)
}

func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	tsk := Go(parent, "child", blockUntilCancelled)

	cancel()

	require.True(t, Join(time.Second, tsk))
	require.ErrorIs(t, tsk.Err(), context.Canceled)
}

func TestJoinTimesOutOnStubbornTask(t *testing.T) {
	release := make(chan struct{})
	stubborn := Go(context.Background(), "stubborn", func(context.Context) error {
		<-release
		return nil
	})
	t.Cleanup(func() { close(release) })

	stubborn.Cancel()
	start := time.Now()
	ok := Join(50*time.Millisecond, stubborn)

	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	require.Equal(t, "stubborn", stubborn.Name())
}

func TestJoinWithZeroTimeoutReportsCurrentState(t *testing.T) {
	finished := Go(context.Background(), "finished", func(context.Context) error { return nil })
	<-finished.Done()

	require.True(t, Join(0, finished))
}

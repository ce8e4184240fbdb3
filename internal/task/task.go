// Package task runs cancellable units of work and coordinates their shutdown.
//
// A Task owns a derived context that is cancelled either by its parent or by
// Cancel. The function it runs is expected to return promptly once that
// context is done; callers hold the *Task handle and never the goroutine.
package task

import (
	"context"
	"sync"
	"time"
)

// Func is the body of a task. It must observe ctx at every wait point.
type Func func(ctx context.Context) error

// Task is a handle to a unit of work running in its own goroutine.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Go starts fn in a new goroutine under a context derived from parent.
func Go(parent context.Context, name string, fn Func) *Task {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer cancel()
		err := fn(ctx)
		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()
	return t
}

// Name returns the name the task was started with.
func (t *Task) Name() string {
	return t.name
}

// Cancel requests the task to stop. It does not wait for it.
func (t *Task) Cancel() {
	t.cancel()
}

// Done returns a channel closed once the task function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Finished reports whether the task function has returned.
func (t *Task) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Err returns the task's result. It is nil until the task has finished.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// WaitFirst blocks until one of tasks finishes and returns it. When several
// have already finished the earliest in argument order wins. It returns nil
// when called without tasks.
func WaitFirst(tasks ...*Task) *Task {
	if len(tasks) == 0 {
		return nil
	}
	for _, t := range tasks {
		if t.Finished() {
			return t
		}
	}
	first := make(chan *Task, len(tasks))
	for _, t := range tasks {
		go func(t *Task) {
			<-t.done
			first <- t
		}(t)
	}
	return <-first
}

// CancelPending cancels every task that has not finished and returns them.
func CancelPending(tasks ...*Task) []*Task {
	var pending []*Task
	for _, t := range tasks {
		if t.Finished() {
			continue
		}
		t.Cancel()
		pending = append(pending, t)
	}
	return pending
}

// Join waits up to timeout for all tasks to finish. It reports whether they
// all did. A non-positive timeout only checks the current state.
func Join(timeout time.Duration, tasks ...*Task) bool {
	timer := time.NewTimer(max(timeout, 0))
	defer timer.Stop()
	for _, t := range tasks {
		select {
		case <-t.done:
		case <-timer.C:
			return allFinished(tasks)
		}
	}
	return true
}

func allFinished(tasks []*Task) bool {
	for _, t := range tasks {
		if !t.Finished() {
			return false
		}
	}
	return true
}

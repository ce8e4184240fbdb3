package runtime

import (
	"context"
	"fmt"
	"time"
)

// Outcome describes how a supervised child run ended.
type Outcome int

const (
	// OutcomeCompleted indicates the child exited before the deadline and its
	// output was collected.
	OutcomeCompleted Outcome = iota
	// OutcomeTerminated indicates the deadline expired and the child exited
	// within the grace period after a graceful termination request.
	OutcomeTerminated
	// OutcomeUnconfirmed indicates the deadline expired and the child was
	// still running when the grace period elapsed.
	OutcomeUnconfirmed
)

// String returns the label used for the outcome in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeTerminated:
		return "terminated"
	case OutcomeUnconfirmed:
		return "unconfirmed"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// TimedOut reports whether the outcome was reached via the deadline path.
func (o Outcome) TimedOut() bool {
	return o == OutcomeTerminated || o == OutcomeUnconfirmed
}

// Spec describes the single child process a runner supervises.
type Spec struct {
	Command []string
	Dir     string
	Env     map[string]string

	// Timeout is the deadline for normal completion.
	Timeout time.Duration
	// Grace bounds the wait after a termination request.
	Grace time.Duration
}

// Result reports the outcome of a supervised run. Stdout and Stderr are only
// populated for OutcomeCompleted.
type Result struct {
	RunID    string
	PID      int
	Outcome  Outcome
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner supervises one child process per call to Run.
type Runner interface {
	// Run spawns the child and blocks until it completes, or until the
	// deadline and grace period have been exhausted. Context cancellation
	// triggers the same graceful termination sequence as the deadline.
	Run(ctx context.Context) (Result, error)
}

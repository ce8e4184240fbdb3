// Package reporter implements the periodic counter logger that runs beside
// the supervised child.
package reporter

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Paintersrp/subproc/internal/logging"
	"github.com/Paintersrp/subproc/internal/metrics"
)

// DefaultInterval is the pause between two iterations.
const DefaultInterval = 400 * time.Millisecond

// Reporter logs an increasing counter at a fixed interval until cancelled.
type Reporter struct {
	interval time.Duration
	logger   *slog.Logger
	observe  func(int)
}

// Option customises a Reporter.
type Option func(*Reporter)

// WithInterval overrides the pause between iterations.
func WithInterval(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the logger iterations are written to.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver registers fn to be called with each counter value after it
// has been logged.
func WithObserver(fn func(int)) Option {
	return func(r *Reporter) {
		r.observe = fn
	}
}

// New constructs a Reporter.
func New(opts ...Option) *Reporter {
	r := &Reporter{
		interval: DefaultInterval,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.For(r.logger, "reporter")
	return r
}

// Run logs iteration 0 immediately and one more iteration per interval. It
// only returns once ctx is done, with ctx's error. Each call starts a fresh
// counter at zero.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Info("iteration number: " + strconv.Itoa(i))
		metrics.IncReporterTick()
		if r.observe != nil {
			r.observe(i)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

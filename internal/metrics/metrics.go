package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	reporterTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subproc",
		Name:      "reporter_ticks_total",
		Help:      "Total number of iterations logged by the periodic reporter.",
	})

	childRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subproc",
		Name:      "child_runs_total",
		Help:      "Total number of supervised child runs by outcome.",
	}, []string{"outcome"})

	childRunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "subproc",
		Name:      "child_run_seconds",
		Help:      "Wall-clock duration of supervised child runs in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 15, 30, 60},
	}, []string{"outcome"})

	terminationRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "subproc",
		Name:      "termination_requests_total",
		Help:      "Total number of graceful termination requests sent to children.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "subproc",
		Name:      "build_info",
		Help:      "Build metadata for the running binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(reporterTicks, childRuns, childRunDuration, terminationRequests, buildInfo)
}

// Registry returns the Prometheus registry containing all subproc metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncReporterTick records one reporter iteration.
func IncReporterTick() {
	reporterTicks.Inc()
}

// ObserveChildRun records the outcome and duration of a supervised run.
func ObserveChildRun(outcome string, d time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	childRuns.WithLabelValues(outcome).Inc()
	childRunDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// IncTerminationRequest records a graceful termination request.
func IncTerminationRequest() {
	terminationRequests.Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}

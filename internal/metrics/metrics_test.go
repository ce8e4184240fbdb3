package metrics_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/subproc/internal/metrics"
)

func scrape(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)
	require.Equal(t, 200, rec.Code, "unexpected status code from metrics handler")
	return rec.Body.String()
}

func TestRegistryExposesMetrics(t *testing.T) {
	metrics.EmitBuildInfo()
	metrics.IncReporterTick()
	metrics.IncTerminationRequest()
	metrics.ObserveChildRun("completed", 250*time.Millisecond)

	body := scrape(t)
	for _, want := range []string{
		"subproc_reporter_ticks_total ",
		"subproc_termination_requests_total ",
		`subproc_child_runs_total{outcome="completed"}`,
		`subproc_child_run_seconds_bucket{outcome="completed"`,
		"subproc_build_info{",
		"go_version=",
	} {
		require.Contains(t, body, want)
	}
}

func TestObserveChildRunLabelsEmptyOutcome(t *testing.T) {
	metrics.ObserveChildRun("", time.Second)

	require.Contains(t, scrape(t), `subproc_child_runs_total{outcome="unknown"}`)
}

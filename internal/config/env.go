package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment variables recognised by ApplyEnv.
const (
	EnvTimeout       = "SUBPROC_TIMEOUT"
	EnvGrace         = "SUBPROC_GRACE"
	EnvInterval      = "SUBPROC_INTERVAL"
	EnvShutdownGrace = "SUBPROC_SHUTDOWN_GRACE"
	EnvProducer      = "SUBPROC_PRODUCER"
	EnvLogLevel      = "SUBPROC_LOG_LEVEL"
	EnvLogFormat     = "SUBPROC_LOG_FORMAT"
	EnvLogOutput     = "SUBPROC_LOG_OUTPUT"
	EnvMetricsAddr   = "SUBPROC_METRICS_ADDR"
)

// ApplyEnv overlays values from the environment onto cfg. Unset or empty
// variables leave cfg untouched. SUBPROC_PRODUCER is split on whitespace.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	durations := []struct {
		key string
		dst *Duration
	}{
		{EnvTimeout, &cfg.Timeout},
		{EnvGrace, &cfg.Grace},
		{EnvInterval, &cfg.Interval},
		{EnvShutdownGrace, &cfg.ShutdownGrace},
	}
	for _, d := range durations {
		value := strings.TrimSpace(getenv(d.key))
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, d.key, err)
		}
		d.dst.Duration = parsed
	}

	if value := getenv(EnvProducer); strings.TrimSpace(value) != "" {
		cfg.Producer.Command = strings.Fields(value)
	}
	if value := strings.TrimSpace(getenv(EnvLogLevel)); value != "" {
		cfg.Logging.Level = value
	}
	if value := strings.TrimSpace(getenv(EnvLogFormat)); value != "" {
		cfg.Logging.Format = value
	}
	if value := strings.TrimSpace(getenv(EnvLogOutput)); value != "" {
		cfg.Logging.Output = value
	}
	if value := strings.TrimSpace(getenv(EnvMetricsAddr)); value != "" {
		cfg.Metrics.Addr = value
	}
	return nil
}

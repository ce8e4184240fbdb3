package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/docker/go-connections/nat"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid configuration")

// Validate reports the first problem found in cfg.
func (c *Config) Validate() error {
	for _, d := range []struct {
		field string
		value Duration
	}{
		{"timeout", c.Timeout},
		{"grace", c.Grace},
		{"interval", c.Interval},
		{"shutdownGrace", c.ShutdownGrace},
	} {
		if d.value.Duration <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, d.field, d.value.Duration)
		}
	}

	if len(c.Producer.Command) > 0 && strings.TrimSpace(c.Producer.Command[0]) == "" {
		return fmt.Errorf("%w: producer.command[0] must not be empty", ErrInvalid)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: logging.level %q is not one of debug, info, warn, error", ErrInvalid, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json", "auto":
	default:
		return fmt.Errorf("%w: logging.format %q is not one of text, json, auto", ErrInvalid, c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("%w: logging.output %q is not one of stdout, stderr", ErrInvalid, c.Logging.Output)
	}

	if c.Metrics.Addr != "" {
		if err := validateListenAddr(c.Metrics.Addr); err != nil {
			return fmt.Errorf("%w: metrics.addr: %v", ErrInvalid, err)
		}
	}
	return nil
}

func validateListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if _, err := nat.ParsePort(port); err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}
	return nil
}

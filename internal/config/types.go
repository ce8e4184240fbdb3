package config

import (
	"fmt"
	"time"
)

const (
	DefaultTimeout       = 15 * time.Second
	DefaultGrace         = time.Second
	DefaultInterval      = 400 * time.Millisecond
	DefaultShutdownGrace = 200 * time.Millisecond
)

// Duration wraps time.Duration for YAML unmarshalling.
type Duration struct {
	time.Duration
}

// UnmarshalText parses Go duration strings such as "1.5s".
func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// MarshalText renders the duration using time.Duration formatting.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config mirrors the consumer configuration file.
type Config struct {
	Producer      Producer `yaml:"producer"`
	Timeout       Duration `yaml:"timeout"`
	Grace         Duration `yaml:"grace"`
	Interval      Duration `yaml:"interval"`
	ShutdownGrace Duration `yaml:"shutdownGrace"`
	Logging       Logging  `yaml:"logging"`
	Metrics       Metrics  `yaml:"metrics"`

	// Source is the file the configuration was loaded from, if any.
	Source string `yaml:"-"`
}

// Producer describes the child process. An empty command selects the
// sibling producer executable.
type Producer struct {
	Command []string          `yaml:"command"`
	Workdir string            `yaml:"workdir"`
	Env     map[string]string `yaml:"env"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Metrics controls the optional Prometheus endpoint. An empty Addr disables
// it.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Timeout:       Duration{DefaultTimeout},
		Grace:         Duration{DefaultGrace},
		Interval:      Duration{DefaultInterval},
		ShutdownGrace: Duration{DefaultShutdownGrace},
		Logging: Logging{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a configuration file on top of Default. Relative producer
// workdirs resolve against the file's directory and environment references
// in env values and the workdir are expanded.
func Load(path string) (*Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	if raw != nil {
		if err := validateAgainstSchema(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", absPath, err)
		}
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: decode: %w", absPath, err)
	}
	cfg.Source = absPath

	baseDir := filepath.Dir(absPath)
	if cfg.Producer.Workdir != "" {
		workdir := os.ExpandEnv(cfg.Producer.Workdir)
		if !filepath.IsAbs(workdir) {
			workdir = filepath.Join(baseDir, workdir)
		}
		cfg.Producer.Workdir = filepath.Clean(workdir)
	}
	for k, v := range cfg.Producer.Env {
		cfg.Producer.Env[k] = os.ExpandEnv(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return cfg, nil
}

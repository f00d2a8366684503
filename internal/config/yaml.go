// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at path. If path is
// empty it searches the default location ("iqspect.yaml") and falls
// back to built-in defaults when no file exists. Environment variable
// overrides apply after the file is read; command line flags are
// applied by the caller and win over both.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat("iqspect.yaml"); err == nil {
			path = "iqspect.yaml"
		} else {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides apply AFTER loading from file.
	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides lets deployment environments adjust a handful of
// settings without editing the config file. IQSPECT_* variables win
// over file values.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("IQSPECT_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("IQSPECT_WORKERS"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.STFT.Workers = iVal
		}
	}
	if val, ok := os.LookupEnv("IQSPECT_WAIT_MODE"); ok {
		cfg.STFT.WaitMode = val
	}
	if val, ok := os.LookupEnv("IQSPECT_PLAN_MODE"); ok {
		cfg.STFT.PlanMode = val
	}
}

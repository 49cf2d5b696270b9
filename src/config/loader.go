package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// envPrefix namespaces the environment overrides.
const envPrefix = "AI_AGENT_"

// Load reads the config file at path (the default XDG location when empty),
// applies environment overrides, and validates the result. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetDefaultConfigPath()
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults apply.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnvironmentOverrides(config)

	if err := NewValidator().Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func applyEnvironmentOverrides(config *Config) {
	if v := os.Getenv(envPrefix + "MODEL"); v != "" {
		config.Model = v
	}
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		config.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "DEFAULT_MODE"); v != "" {
		config.DefaultMode = v
	}
	if v := os.Getenv(envPrefix + "MAX_TOOL_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.MaxToolSteps = n
		}
	}
}

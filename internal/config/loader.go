package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// LoadSim loads the simulation configuration.
// Search order: customPath -> ~/.stratometer/configs/sim.yaml -> ./configs/sim.yaml -> embedded default
func LoadSim(customPath string) (SimConfig, error) {
	cfg, err := load("sim.yaml", customPath, defaultSimYAML, DefaultSimConfig)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadReefscape loads Reefscape game configuration.
// Search order: customPath -> ~/.stratometer/configs/reefscape.yaml -> ./configs/reefscape.yaml -> embedded default
func LoadReefscape(customPath string) (ReefscapeConfig, error) {
	cfg, err := load("reefscape.yaml", customPath, defaultReefscapeYAML, DefaultReefscapeConfig)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// PathIn returns the path of a named config file inside dir, or "" when
// dir is empty so the regular search order applies.
func PathIn(dir, filename string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, filename)
}

// load decodes a config document over the hardcoded defaults, so a file
// only needs the keys it changes.
func load[T any](filename, customPath string, embedded []byte, defaults func() T) (T, error) {
	cfg := defaults()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(filename); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = defaults()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", filename)); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = defaults()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(embedded, &cfg); err != nil {
		return defaults(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".stratometer", "configs", filename)
}

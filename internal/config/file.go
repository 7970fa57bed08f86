package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns ~/.config/fpsboost/config.yaml
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "fpsboost", "config.yaml"), nil
}

// LoadFromFile reads a YAML file over the defaults. Keys missing from the
// file keep their default values.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	return cfg, nil
}

// Load builds the effective configuration: defaults, then the file named by
// FPSBOOST_CONFIG or the default path when it exists, then the environment.
func Load() (*Config, error) {
	path := os.Getenv("FPSBOOST_CONFIG")
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			path = ""
		}
	}

	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			loaded, err := LoadFromFile(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	LoadFromEnv(cfg)
	return cfg, nil
}

// WriteFile saves cfg as YAML, creating the parent directory.
func WriteFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	return errors.Wrapf(os.WriteFile(path, data, 0644), "failed to write config file %s", path)
}

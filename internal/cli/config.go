package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/piso/internal/config"
)

// CLIConfig holds defaults persisted to disk. Environment variables and
// flags take precedence.
type CLIConfig struct {
	Store   string `yaml:"store,omitempty"`
	DB      string `yaml:"db,omitempty"`
	RESTURL string `yaml:"rest_url,omitempty"`
	RESTKey string `yaml:"rest_key,omitempty"`
}

// configPath returns the path to the CLI config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "piso", "config.yaml"), nil
}

// loadConfig reads the CLI config from disk.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// saveConfig writes the CLI config to disk.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// loadSettings merges the environment, the config file and the global
// flags, in increasing precedence.
func loadSettings() (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}

	file, err := loadConfig()
	if err != nil {
		return nil, err
	}
	overlay(&cfg.Store, "PISO_STORE", file.Store)
	overlay(&cfg.DBPath, "PISO_DB", file.DB)
	overlay(&cfg.RESTURL, "PISO_REST_URL", file.RESTURL)
	overlay(&cfg.RESTKey, "PISO_REST_KEY", file.RESTKey)

	if flagStore != "" {
		cfg.Store = flagStore
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlay sets *dst to fileValue when the env var is unset.
func overlay(dst *string, envKey, fileValue string) {
	if fileValue != "" && os.Getenv(envKey) == "" {
		*dst = fileValue
	}
}

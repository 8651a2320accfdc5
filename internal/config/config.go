// Package config loads habitflow settings from an optional YAML file and the
// environment, with the API key falling back to the OS keyring.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitflow/internal/backend"
	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/keyring"
	"github.com/julianstephens/habitflow/internal/logger"
	"github.com/julianstephens/habitflow/internal/storage"
	"github.com/julianstephens/habitflow/internal/utils"
)

// Environment variable names
const (
	EnvConfigPath = "HABITFLOW_CONFIG"
	EnvEndpoint   = "HABITFLOW_ENDPOINT"
	EnvAPIKey     = "HABITFLOW_API_KEY"
)

type Config struct {
	Backend              Backend `yaml:"backend"`
	Log                  Log     `yaml:"log"`
	Timezone             string  `yaml:"timezone" env:"HABITFLOW_TIMEZONE" env-default:"Local"`
	CompletionWindowDays int     `yaml:"completion_window_days" env:"HABITFLOW_COMPLETION_WINDOW_DAYS" env-default:"30"`

	// Path is the file the configuration was read from, if any
	Path string `yaml:"-" env:"-"`
}

// Backend holds the two required settings for the persistence collaborator
type Backend struct {
	Endpoint string `yaml:"endpoint" env:"HABITFLOW_ENDPOINT"`
	// APIKey is normally kept in the keyring rather than the file
	APIKey string `yaml:"api_key,omitempty" env:"HABITFLOW_API_KEY"`
}

type Log struct {
	Level string `yaml:"level" env:"HABITFLOW_LOG_LEVEL" env-default:"warn"`
}

// Missing names the environment variables a user must set to configure the backend
func (b Backend) Missing() []string {
	var out []string
	for _, m := range storage.MissingSettings(b.Endpoint, b.APIKey) {
		switch m {
		case storage.SettingEndpoint:
			out = append(out, EnvEndpoint)
		case storage.SettingAPIKey:
			out = append(out, EnvAPIKey)
		}
	}
	return out
}

// DefaultPath returns the config file location under the user's config dir
func DefaultPath() string {
	return filepath.Join(backend.ExpandPath(constants.DefaultConfigDir), constants.DefaultConfigFile)
}

// Dir returns the directory holding the config file and logs
func (c *Config) Dir() string {
	if c.Path != "" {
		return filepath.Dir(c.Path)
	}
	return backend.ExpandPath(constants.DefaultConfigDir)
}

// Load reads configuration. Priority: ENV > YAML > defaults.
// The file is path, else $HABITFLOW_CONFIG, else DefaultPath(). A missing
// file yields env defaults; when it was named explicitly, Path still points
// at it so that init writes there.
func Load(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}
	path = backend.ExpandPath(path)

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		cfg.Path = path
	case !errors.Is(statErr, fs.ErrNotExist):
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
		if explicit {
			cfg.Path = path
		}
	}

	if cfg.Backend.APIKey == "" {
		key, err := keyring.GetAPIKey()
		switch {
		case err == nil:
			cfg.Backend.APIKey = key
		case errors.Is(err, keyring.ErrNotFound):
		default:
			logger.Debug("Keyring lookup failed", "error", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks the optional settings. Backend settings are not required
// here; their absence yields an Unconfigured backend.
func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("timezone %q is not a valid IANA zone", c.Timezone)
	}
	if c.CompletionWindowDays <= 0 {
		return fmt.Errorf("completion_window_days must be > 0 (got %d)", c.CompletionWindowDays)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q must be one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// Save writes the configuration as YAML, leaving the API key out.
func (c *Config) Save(path string) error {
	out := *c
	out.Backend.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

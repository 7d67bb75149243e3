// Package appconf holds the application configuration: the runtime
// environment plus the tunables loaded from a YAML file.
package appconf

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps a CLI flag value to an Environment.
func EnvFlagToEnvironment(flag string) Environment {
	switch flag {
	case "test":
		return Test
	case "production":
		return Production
	default:
		return Development
	}
}

// Config is the full application configuration. Zero values are filled in
// by Load; a file is only needed to override the defaults.
type Config struct {
	Env Environment `yaml:"-"`

	// DBPath locates the settings database. Test builds must use ":memory:".
	DBPath string `yaml:"dbPath" validate:"required"`

	// RefreshSeconds is the minimum interval between feed refreshes.
	RefreshSeconds int `yaml:"refreshSeconds" validate:"gte=0"`

	// BufferMinutes is the default dock buffer for new installs.
	BufferMinutes int `yaml:"bufferMinutes" validate:"gte=0,lte=120"`
}

// Load reads a YAML config file, validates it, and applies defaults.
// An empty path returns the default configuration.
func Load(path string, env Environment) (Config, error) {
	cfg := Config{
		Env:            env,
		DBPath:         "tideline.db",
		RefreshSeconds: 90,
		BufferMinutes:  15,
	}
	if env == Test {
		cfg.DBPath = ":memory:"
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if env == Test && cfg.DBPath != ":memory:" {
		return Config{}, fmt.Errorf("test configuration must use an in-memory database, got %q", cfg.DBPath)
	}
	return cfg, nil
}

// Package config loads and validates engine configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project  ProjectConfig  `yaml:"project" validate:"required"`
	Packages PackagesConfig `yaml:"packages"`
	Limits   Limits         `yaml:"limits" validate:"required"`
	Log      LogConfig      `yaml:"log"`
}

type ProjectConfig struct {
	Path string `yaml:"path" validate:"required"`
	Name string `yaml:"name" validate:"required"`
}

type PackagesConfig struct {
	Manager string `yaml:"manager" validate:"omitempty,oneof=npm pnpm yarn bun"`
}

type Limits struct {
	CommandTimeout    time.Duration `yaml:"command_timeout" validate:"required,min=1s,max=1h"`
	CommandsPerMinute int           `yaml:"commands_per_minute" validate:"required,min=1,max=600"`
	BurstSize         int           `yaml:"burst_size" validate:"required,min=1,max=100"`
	MaxOutputBytes    int           `yaml:"max_output_bytes" validate:"required,min=1024"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

func DefaultLimits() Limits {
	return Limits{
		CommandTimeout:    10 * time.Minute,
		CommandsPerMinute: 60,
		BurstSize:         10,
		MaxOutputBytes:    1 << 20,
	}
}

// Load reads the config file, applies environment overrides and
// defaults, and validates the result
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = configPath()
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// No file: run on env vars and defaults alone
	} else if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func configPath() string {
	if path := os.Getenv("STACKFORGE_CONFIG"); path != "" {
		return path
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "stackforge", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stackforge", "config.yaml")
}

func applyEnv(cfg *Config) {
	if path := os.Getenv("STACKFORGE_PROJECT_PATH"); path != "" {
		cfg.Project.Path = path
	}
	if name := os.Getenv("STACKFORGE_PROJECT_NAME"); name != "" {
		cfg.Project.Name = name
	}
	if pm := os.Getenv("STACKFORGE_PACKAGE_MANAGER"); pm != "" {
		cfg.Packages.Manager = pm
	}
	if level := os.Getenv("STACKFORGE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Packages.Manager == "" {
		cfg.Packages.Manager = "npm"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	if cfg.Project.Name == "" && cfg.Project.Path != "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Path)
	}
}

func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

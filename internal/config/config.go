// Package config loads the YAML configuration for the pipewalk host.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls the serve command.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// LogLevel is a zerolog level name (trace, debug, info, warn,
	// error).
	LogLevel string `yaml:"log_level"`

	// Strict makes sessions reject unusable pipeline documents
	// instead of falling back to the default pipeline.
	Strict bool `yaml:"strict"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
	}
}

// Load reads a YAML config file, filling unset fields from Defaults.
// An empty path returns Defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Addr == "" {
		cfg.Addr = Defaults().Addr
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = Defaults().LogLevel
	}
	return cfg, nil
}

// Package config loads the tool configuration from TOML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
)

// Default configuration values used when a field is missing.
const (
	DefaultConfigPath    = "parse-video-metadata.toml"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultStorePath     = "attachments.db"
	DefaultSidecarSuffix = ".json"
	EnvPrefix            = "PVM_"
)

// Config is the root configuration.
type Config struct {
	Log   LogConfig   `toml:"log" envPrefix:"LOG_"`
	Store StoreConfig `toml:"store" envPrefix:"STORE_"`
	Scan  ScanConfig  `toml:"scan" envPrefix:"SCAN_"`
}

// LogConfig holds logging level and format (console or json).
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
}

// StoreConfig holds the attachment database location.
type StoreConfig struct {
	Path string `toml:"path" env:"PATH"`
}

// ScanConfig holds media detection settings.
type ScanConfig struct {
	VideoExtensions []string `toml:"video_extensions" env:"VIDEO_EXTENSIONS" envSeparator:","`
	PhotoExtensions []string `toml:"photo_extensions" env:"PHOTO_EXTENSIONS" envSeparator:","`
	// SidecarSuffix names stored analysis dumps next to media files.
	SidecarSuffix string `toml:"sidecar_suffix" env:"SIDECAR_SUFFIX"`
}

// Default returns the configuration used when no file or environment is present.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
		Scan: ScanConfig{
			SidecarSuffix: DefaultSidecarSuffix,
		},
	}
}

// Load reads the TOML file at path, then applies PVM_* environment overrides.
// A missing file is not an error when path is the default.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("config env: %w", err)
	}

	return cfg, nil
}

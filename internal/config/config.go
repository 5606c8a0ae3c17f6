// Package config loads covgap settings from an optional .covgap.yaml file and
// COVGAP_* environment variables. Command-line flags override both.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	cverr "github.com/zjy-dev/covgap/internal/errors"
)

// FileName is the base name of the configuration file searched for in the
// working directory and the home directory.
const FileName = ".covgap"

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "COVGAP"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds every configurable option.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Root     string `mapstructure:"root"`

	// Inputs are the coverage files used when none are given on the command line.
	Inputs []string `mapstructure:"inputs"`
	Format string   `mapstructure:"format"`
	Color  string   `mapstructure:"color"`

	Sections   []string `mapstructure:"sections"`
	BranchMode string   `mapstructure:"branch_mode"`
	Sort       string   `mapstructure:"sort"`
	MaxGap     int      `mapstructure:"max_gap"`
	GroupDepth int      `mapstructure:"group_depth"`

	Include   []string `mapstructure:"include"`
	Exclude   []string `mapstructure:"exclude"`
	Threshold []string `mapstructure:"threshold"`

	Snippets  bool `mapstructure:"snippets"`
	Context   int  `mapstructure:"context"`
	CacheSize int  `mapstructure:"cache_size"`

	// File is the configuration file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

var defaults = map[string]interface{}{
	"log_level":   "warn",
	"root":        "",
	"inputs":      []string{},
	"format":      "human",
	"color":       ColorAuto,
	"sections":    []string{"lines", "branches", "summary"},
	"branch_mode": "partial",
	"sort":        "file",
	"max_gap":     0,
	"group_depth": 0,
	"include":     []string{},
	"exclude":     []string{},
	"threshold":   []string{},
	"snippets":    false,
	"context":     0,
	"cache_size":  128,
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	return load(v, "")
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. An explicit path must exist; otherwise
// .covgap.yaml is searched for in the working directory, then in $HOME, and a
// missing file is not an error.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, cverr.ConfigurationWithHint(
				"check the --config path",
				"failed to read config file %s: %v", path, err)
		}
		return load(v, v.ConfigFileUsed())
	}

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, cverr.Configuration("failed to read config file: %v", err)
		}
		return load(v, "")
	}
	return load(v, v.ConfigFileUsed())
}

func load(v *viper.Viper, file string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cverr.Configuration("failed to unmarshal config data: %v", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values that are not parsed by other packages.
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return cverr.ConfigurationWithHint(
			"color must be auto, always or never",
			"invalid color mode %q", c.Color)
	}
	if c.MaxGap < 0 {
		return cverr.Configuration("max_gap must not be negative, got %d", c.MaxGap)
	}
	if c.Context < 0 {
		return cverr.Configuration("context must not be negative, got %d", c.Context)
	}
	if c.GroupDepth < 0 {
		return cverr.Configuration("group_depth must not be negative, got %d", c.GroupDepth)
	}
	return nil
}

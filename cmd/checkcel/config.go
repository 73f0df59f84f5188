package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "CHECKCEL_CONFIG"

// Config represents the checkcel configuration file (~/.config/checkcel/config.yaml).
// Booleans are pointers so we can distinguish "not set" from false.
type Config struct {
	Intensity *bool  `yaml:"intensity"`
	Filter    *bool  `yaml:"filter"`
	Output    string `yaml:"output"`
	Digest    *bool  `yaml:"digest"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "checkcel", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyConfig applies config file defaults to options whose flag was not
// explicitly set on the command line.
func applyConfig(c *cli.Command, cfg Config, opts *options) {
	if cfg.Intensity != nil && !c.IsSet("intensity") {
		opts.intensity = *cfg.Intensity
	}
	if cfg.Filter != nil && !c.IsSet("filter") {
		opts.filter = *cfg.Filter
	}
	if cfg.Output != "" && !c.IsSet("output") {
		opts.output = cfg.Output
	}
	if cfg.Digest != nil && !c.IsSet("digest") {
		opts.digest = *cfg.Digest
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		opts.logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		opts.logFormat = cfg.LogFormat
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Heliobot Contributors

// Package config loads bot configuration from file, environment, and flags.
package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Token environment variables, in lookup order. HELIO_TOKEN wins so a
// heliobot-specific token can coexist with other bots on the same host.
var tokenEnvVars = []string{"HELIO_TOKEN", "DISCORD_TOKEN"}

// Defaults applied when neither file nor flags set a value.
const (
	DefaultPluginsDir  = "plugins"
	DefaultLogFormat   = "json"
	DefaultMetricsAddr = "127.0.0.1:9100"
)

// Config holds the bot's runtime configuration.
type Config struct {
	Token           string   `koanf:"token"`
	PluginsDir      string   `koanf:"plugins-dir"`
	GuildID         string   `koanf:"guild-id"`
	LogFormat       string   `koanf:"log-format"`
	MetricsAddr     string   `koanf:"metrics-addr"`
	DisabledPlugins []string `koanf:"disabled-plugins"`
}

// Load builds a Config with precedence: defaults < config file < flags,
// with the token additionally falling back to the environment. path may be
// empty (no file); flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Token == "" {
		for _, name := range tokenEnvVars {
			if v := os.Getenv(name); v != "" {
				c.Token = v
				break
			}
		}
	}
	if c.PluginsDir == "" {
		c.PluginsDir = DefaultPluginsDir
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
}

// Validate checks constraints that apply to every subcommand. Token
// presence is checked separately by RequireToken since offline subcommands
// run without one.
func (c *Config) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	return nil
}

// RequireToken returns an error if no bot token was configured. Called by
// the run subcommand; a missing token is startup-fatal.
func (c *Config) RequireToken() error {
	if c.Token == "" {
		return fmt.Errorf("bot token is required: set token in the config file or %s", tokenEnvVars[0])
	}
	return nil
}

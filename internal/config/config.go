// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Embergate Contributors

// Package config loads server configuration from a YAML file and
// command-line flags. Flags take precedence over the file.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full server configuration.
type Config struct {
	DatabaseURL       string `koanf:"database_url"`
	HTTPAddr          string `koanf:"http_addr"`
	GatewayAddr       string `koanf:"gateway_addr"`
	ObservabilityAddr string `koanf:"observability_addr"`

	// TokenSigningKey is the hex-encoded JWT signing key. When empty a
	// random key is generated at startup, invalidating tokens on restart.
	TokenSigningKey string `koanf:"token_signing_key"`

	Log  LogConfig  `koanf:"log"`
	SMTP SMTPConfig `koanf:"smtp"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// SMTPConfig configures verification-mail delivery. An empty Host selects
// the console sender.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

// RegisterFlags declares the configuration flags with their defaults.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("database-url", "", "PostgreSQL connection URL")
	f.String("http-addr", ":8000", "HTTP API listen address")
	f.String("gateway-addr", ":4000", "realtime gateway listen address")
	f.String("observability-addr", "127.0.0.1:9100", "metrics and health listen address")
	f.String("token-signing-key", "", "hex-encoded JWT signing key")
	f.String("log-format", "json", "log format (json or text)")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.String("smtp-host", "", "SMTP host (empty logs codes to stdout)")
	f.Int("smtp-port", 587, "SMTP port")
	f.String("smtp-username", "", "SMTP username")
	f.String("smtp-password", "", "SMTP password")
	f.String("smtp-from", "", "verification mail From address")
}

// flagKeys maps flag names onto config keys.
var flagKeys = map[string]string{
	"database-url":       "database_url",
	"http-addr":          "http_addr",
	"gateway-addr":       "gateway_addr",
	"observability-addr": "observability_addr",
	"token-signing-key":  "token_signing_key",
	"log-format":         "log.format",
	"log-level":          "log.level",
	"smtp-host":          "smtp.host",
	"smtp-port":          "smtp.port",
	"smtp-username":      "smtp.username",
	"smtp-password":      "smtp.password",
	"smtp-from":          "smtp.from",
}

// Load reads configuration from the YAML file at path (skipped when path
// is empty) and overlays set flags. Flag defaults fill any remaining gaps.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_MISSING_DATABASE_URL").Errorf("database_url is required")
	}
	if c.HTTPAddr == "" {
		return oops.Code("CONFIG_MISSING_ADDR").Errorf("http_addr is required")
	}
	if c.GatewayAddr == "" {
		return oops.Code("CONFIG_MISSING_ADDR").Errorf("gateway_addr is required")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return oops.Code("CONFIG_SMTP_INCOMPLETE").Errorf("smtp.from is required when smtp.host is set")
	}
	return nil
}

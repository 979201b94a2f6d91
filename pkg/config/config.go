// Package config loads exporter settings from a config file, FIGMA_TOKENS_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/hellenic-development/figma-tokens/pkg/formatter"
	"github.com/hellenic-development/figma-tokens/pkg/tokens"
)

// EnvPrefix prefixes every environment variable, e.g. FIGMA_TOKENS_EXPORT_FORMATS.
const EnvPrefix = "FIGMA_TOKENS"

// Config is the complete exporter configuration.
type Config struct {
	Figma  FigmaConfig  `mapstructure:"figma"`
	Export ExportConfig `mapstructure:"export"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// FigmaConfig selects where variables come from.
type FigmaConfig struct {
	// Token is a personal access token, passed through untouched.
	Token string `mapstructure:"token"`
	// File is a figma.com URL or bare file key.
	File string `mapstructure:"file"`
	// Snapshot is a saved variables response; used instead of the API when set.
	Snapshot      string        `mapstructure:"snapshot"`
	BaseURL       string        `mapstructure:"base_url"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Retries       int           `mapstructure:"retries"`
	Backoff       time.Duration `mapstructure:"backoff"`
}

// ExportConfig holds the default selection and the run limits.
type ExportConfig struct {
	Collections         []string      `mapstructure:"collections"`
	Formats             []string      `mapstructure:"formats"`
	Types               []string      `mapstructure:"types"`
	OutDir              string        `mapstructure:"out_dir"`
	MaxOutputBytes      int64         `mapstructure:"max_output_bytes"`
	BatchSize           int           `mapstructure:"batch_size"`
	YieldEvery          int           `mapstructure:"yield_every"`
	MemoryAdvisoryBytes uint64        `mapstructure:"memory_advisory_bytes"`
	WatchDebounce       time.Duration `mapstructure:"watch_debounce"`
}

// ServerConfig configures the WebSocket host endpoint.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults registers every key with its default value. Keys must be
// registered for environment variables to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("figma.token", "")
	v.SetDefault("figma.file", "")
	v.SetDefault("figma.snapshot", "")
	v.SetDefault("figma.base_url", "https://api.figma.com/v1")
	v.SetDefault("figma.rate_per_second", 2.0)
	v.SetDefault("figma.burst", 4)
	v.SetDefault("figma.retries", 3)
	v.SetDefault("figma.backoff", 2*time.Second)

	v.SetDefault("export.collections", []string{})
	v.SetDefault("export.formats", []string{string(formatter.CSS)})
	v.SetDefault("export.types", tokens.Types)
	v.SetDefault("export.out_dir", ".")
	v.SetDefault("export.max_output_bytes", 50<<20)
	v.SetDefault("export.batch_size", 100)
	v.SetDefault("export.yield_every", 1000)
	v.SetDefault("export.memory_advisory_bytes", 512<<20)
	v.SetDefault("export.watch_debounce", 500*time.Millisecond)

	v.SetDefault("server.addr", "127.0.0.1:7766")
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://www.figma.com",
	})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// NewViper returns a viper instance with defaults and environment binding.
// FIGMA_TOKEN is honoured for the access token as well, since other Figma
// tooling reads it.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("figma.token", EnvPrefix+"_FIGMA_TOKEN", "FIGMA_TOKEN")
	SetDefaults(v)
	return v
}

// Load reads the config file into v and decodes the result. With an empty
// path, figma-tokens.{yaml,json,toml} is looked up in the working directory
// and in the user config directory; a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	} else {
		v.SetConfigName("figma-tokens")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "figma-tokens"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	for _, f := range c.Export.Formats {
		if _, err := formatter.ParseFormat(f); err != nil {
			return errors.WithHint(errors.Wrap(err, "export.formats"),
				"supported formats: css, swift, android, flutter, w3c, tailwind")
		}
	}
	for _, t := range c.Export.Types {
		if _, err := tokens.ParseType(t); err != nil {
			return errors.WithHint(errors.Wrap(err, "export.types"),
				"supported token types: color, string, boolean, number")
		}
	}

	switch {
	case c.Export.MaxOutputBytes <= 0:
		return errors.Newf("export.max_output_bytes must be positive, got %d", c.Export.MaxOutputBytes)
	case c.Export.BatchSize <= 0:
		return errors.Newf("export.batch_size must be positive, got %d", c.Export.BatchSize)
	case c.Export.YieldEvery <= 0:
		return errors.Newf("export.yield_every must be positive, got %d", c.Export.YieldEvery)
	case c.Figma.RatePerSecond <= 0:
		return errors.Newf("figma.rate_per_second must be positive, got %v", c.Figma.RatePerSecond)
	}
	return nil
}

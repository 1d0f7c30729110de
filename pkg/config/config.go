// Package config provides YAML/env based configuration loading for logship.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"logship/pkg/codec"
	"logship/pkg/event"
	"logship/pkg/transport"
)

// Config is the root application configuration.
type Config struct {
	// AppName is attached to log lines and used as the default tag prefix
	AppName string `mapstructure:"app_name"`

	// Tag is the default event tag for shipped records
	Tag string `mapstructure:"tag"`

	// Codec: json, cbor or proto
	Codec string `mapstructure:"codec"`

	// Framing: newline (json only) or length
	Framing string `mapstructure:"framing"`

	Sender SenderConfig `mapstructure:"sender"`
	Retry  RetryConfig  `mapstructure:"retry"`
	Sink   SinkConfig   `mapstructure:"sink"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		AppName: "logship",
		Tag:     "logship",
		Codec:   "json",
		Framing: "newline",
		Sender: SenderConfig{
			Kind: "tcp",
			Host: transport.DefaultHost,
			Port: transport.DefaultPort,
		},
		Retry: RetryConfig{Attempts: 5, InitialMS: 500, MaxMS: 30000, JitterMS: 100},
		Sink:  SinkConfig{Listen: fmt.Sprintf("%s:%d", transport.DefaultHost, transport.DefaultPort)},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/logship.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise from
// LOGSHIP_CONFIG or the usual search locations. A .env file in the working
// directory is loaded into the environment first. Environment variables use
// the prefix LOGSHIP with `.`/`-` replaced by `_`, e.g. LOGSHIP_SENDER_PORT=5170.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LOGSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("tag", cfg.Tag)
	v.SetDefault("codec", cfg.Codec)
	v.SetDefault("framing", cfg.Framing)
	v.SetDefault("sender.kind", cfg.Sender.Kind)
	v.SetDefault("sender.host", cfg.Sender.Host)
	v.SetDefault("sender.port", cfg.Sender.Port)
	v.SetDefault("retry.attempts", cfg.Retry.Attempts)
	v.SetDefault("retry.initial_ms", cfg.Retry.InitialMS)
	v.SetDefault("retry.max_ms", cfg.Retry.MaxMS)
	v.SetDefault("retry.jitter_ms", cfg.Retry.JitterMS)
	v.SetDefault("sink.listen", cfg.Sink.Listen)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	if path == "" {
		path = os.Getenv("LOGSHIP_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("logship")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".logship"))
		}
	}

	// a missing config file is fine; defaults and env still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks and normalizes c. Call it again after changing fields that
// Load already validated, e.g. when applying command line overrides.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	cd, err := codec.Lookup(c.Codec)
	if err != nil {
		return fmt.Errorf("invalid codec: %w", err)
	}
	c.Codec = cd.Name()
	fr, err := event.ParseFraming(c.Framing)
	if err != nil {
		return fmt.Errorf("invalid framing: %w", err)
	}
	c.Framing = fr.String()
	if fr == event.FramingNewline && c.Codec != "json" {
		return fmt.Errorf("framing %q requires codec json, got %q", c.Framing, c.Codec)
	}

	k, err := transport.ParseKind(c.Sender.Kind)
	if err != nil {
		return fmt.Errorf("invalid sender.kind: %w", err)
	}
	c.Sender.Kind = k.String()
	if c.Sender.Port < 0 || c.Sender.Port > 65535 {
		return fmt.Errorf("invalid sender.port: %d", c.Sender.Port)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("invalid retry.attempts: %d (must be >= 1)", c.Retry.Attempts)
	}
	if strings.TrimSpace(c.Tag) == "" {
		c.Tag = c.AppName
	}
	return nil
}

// Endpoint returns the sender endpoint with transport defaults applied.
func (c *Config) Endpoint() transport.Endpoint {
	return transport.NewEndpoint(c.Sender.Host, c.Sender.Port)
}

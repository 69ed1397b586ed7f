package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Analysis and sharing
	InferenceSampleRows int    `mapstructure:"inference_sample_rows" yaml:"inference_sample_rows" validate:"gte=1"`
	ShareMaxTokenChars  int    `mapstructure:"share_max_token_chars" yaml:"share_max_token_chars" validate:"gte=1"`
	ShareBaseURL        string `mapstructure:"share_base_url" yaml:"share_base_url" validate:"omitempty,url"`
	DefaultChartKind    string `mapstructure:"default_chart_kind" yaml:"default_chart_kind" validate:"oneof=auto line bar scatter pie"`
	DefaultAggregation  string `mapstructure:"default_aggregation" yaml:"default_aggregation" validate:"oneof=none sum avg median count"`

	// HTTP/Retry configuration for URL sources
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"gte=0"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"gte=0"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"gte=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"gte=0"`

	// Server and rendering
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	SVGWidth   int    `mapstructure:"svg_width" yaml:"svg_width" validate:"gte=1"`
	SVGHeight  int    `mapstructure:"svg_height" yaml:"svg_height" validate:"gte=1"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Keys lists every recognized configuration key.
var Keys = []string{
	"inference_sample_rows", "share_max_token_chars", "share_base_url",
	"default_chart_kind", "default_aggregation",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"server_addr", "svg_width", "svg_height", "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("inference_sample_rows", 1000)
	v.SetDefault("share_max_token_chars", 150000)
	v.SetDefault("share_base_url", "")
	v.SetDefault("default_chart_kind", "auto")
	v.SetDefault("default_aggregation", "none")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("svg_width", 800)
	v.SetDefault("svg_height", 450)
	v.SetDefault("log_level", "info")
}

// DefaultPath returns ~/.chartloom/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chartloom", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.chartloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Default returns the built-in configuration, ignoring files and env.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CHARTLOOM")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.DefaultChartKind = strings.ToLower(strings.TrimSpace(c.DefaultChartKind))
	c.DefaultAggregation = strings.ToLower(strings.TrimSpace(c.DefaultAggregation))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New()

// Validate checks value ranges and enumerations.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Set assigns one key from its string form, as used by `config set`.
func (c *Global) Set(key, value string) error {
	v := viper.New()
	setDefaults(v)
	known := false
	for _, k := range Keys {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown config key: %s", key)
	}
	cur, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(string(cur))); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	v.Set(key, value)
	var next Global
	if err := v.Unmarshal(&next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// HTTPTimeout returns the HTTP timeout as a duration.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// RetryBaseDelay returns the first backoff delay.
func (c *Global) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the backoff cap.
func (c *Global) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}

// SlogLevel maps LogLevel to a slog level; unknown values are info.
func (c *Global) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

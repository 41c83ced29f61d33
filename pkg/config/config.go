package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/blinspect/internal/device"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load and the CLI
const (
	EnvAddress = "BLINSPECT_ADDRESS"
	EnvConfig  = "BLINSPECT_CONFIG"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds application configuration
type Config struct {
	Address        string        `json:"address"`
	ConnectTimeout time.Duration `json:"connect_timeout" default:"30s"`
	ReadTimeout    time.Duration `json:"read_timeout" default:"5s"`
	ReadLimit      int           `json:"read_limit" default:"512"`
	OutputFormat   string        `json:"output_format" default:"text"` // text, json

	// LogLevel defaults to PanicLevel so only the report reaches the terminal
	LogLevel logrus.Level `json:"log_level"`
}

// fileConfig is the YAML file layout; nil fields keep the current value
type fileConfig struct {
	Address        *string        `yaml:"address"`
	ConnectTimeout *time.Duration `yaml:"connect_timeout"`
	ReadTimeout    *time.Duration `yaml:"read_timeout"`
	ReadLimit      *int           `yaml:"read_limit"`
	OutputFormat   *string        `yaml:"output_format"`
	LogLevel       *string        `yaml:"log_level"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load builds a configuration from defaults, the optional YAML file at path and the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// LoadFile merges the YAML file at path into c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := c.decodeYAML(data); err != nil {
		return fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) decodeYAML(data []byte) error {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if fc.Address != nil {
		c.Address = *fc.Address
	}
	if fc.ConnectTimeout != nil {
		c.ConnectTimeout = *fc.ConnectTimeout
	}
	if fc.ReadTimeout != nil {
		c.ReadTimeout = *fc.ReadTimeout
	}
	if fc.ReadLimit != nil {
		c.ReadLimit = *fc.ReadLimit
	}
	if fc.OutputFormat != nil {
		c.OutputFormat = *fc.OutputFormat
	}
	if fc.LogLevel != nil {
		level, err := logrus.ParseLevel(*fc.LogLevel)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}
	return nil
}

// ApplyEnv overrides values set in the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if addr, ok := lookup(EnvAddress); ok && addr != "" {
		c.Address = addr
	}
}

// Validate checks the configuration and normalises the device address.
func (c *Config) Validate() error {
	addr, err := device.ValidateAddress(c.Address)
	if err != nil {
		return err
	}
	c.Address = addr

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %v", c.ConnectTimeout)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", c.ReadTimeout)
	}
	if c.ReadLimit < 0 {
		return fmt.Errorf("read limit must not be negative, got %d", c.ReadLimit)
	}
	switch c.OutputFormat {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown output format %q (expected %s or %s)", c.OutputFormat, FormatText, FormatJSON)
	}
	if c.LogLevel > logrus.TraceLevel {
		return fmt.Errorf("unknown log level %d", c.LogLevel)
	}
	return nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	logger.SetOutput(os.Stderr)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}

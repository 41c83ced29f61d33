package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, logrus.PanicLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 512, cfg.ReadLimit)
	assert.Equal(t, FormatText, cfg.OutputFormat)
	assert.Empty(t, cfg.Address)
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel logrus.Level
	}{
		{
			name:     "creates logger with debug level",
			logLevel: logrus.DebugLevel,
		},
		{
			name:     "creates logger with info level",
			logLevel: logrus.InfoLevel,
		},
		{
			name:     "creates logger with warn level",
			logLevel: logrus.WarnLevel,
		},
		{
			name:     "creates silent logger by default",
			logLevel: logrus.PanicLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel: tt.logLevel,
			}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.logLevel, logger.GetLevel())
			assert.Equal(t, os.Stderr, logger.Out)

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestConfig_DecodeYAML(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.decodeYAML([]byte(`
address: "AA:BB:CC:DD:EE:FF"
connect_timeout: 10s
read_timeout: 1500ms
read_limit: 0
output_format: json
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.Address)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 0, cfg.ReadLimit, "explicit zero MUST override the default")
	assert.Equal(t, FormatJSON, cfg.OutputFormat)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestConfig_DecodeYAMLPartial(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.decodeYAML([]byte("read_timeout: 2s\n")))

	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout, "unset keys MUST keep defaults")
	assert.Equal(t, 512, cfg.ReadLimit)

	require.NoError(t, DefaultConfig().decodeYAML(nil), "empty file MUST be accepted")
}

func TestConfig_DecodeYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "scan_timeout: 10s\n"},
		{"bad duration", "connect_timeout: soon\n"},
		{"bad log level", "log_level: loud\n"},
		{"bad read limit", "read_limit: many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, DefaultConfig().decodeYAML([]byte(tt.yaml)))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blinspect.yaml")
	require.NoError(t, os.WriteFile(path, []byte("address: \"11:22:33:44:55:66\"\nread_limit: 16\n"), 0o600))

	t.Run("file values", func(t *testing.T) {
		t.Setenv(EnvAddress, "")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "11:22:33:44:55:66", cfg.Address)
		assert.Equal(t, 16, cfg.ReadLimit)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv(EnvAddress, "AA:BB:CC:DD:EE:FF")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "AA:BB:CC:DD:EE:FF", cfg.Address)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})

	t.Run("no file", func(t *testing.T) {
		t.Setenv(EnvAddress, "")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Address = " AA:BB:CC:DD:EE:FF "
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "read limit zero is valid", mutate: func(c *Config) { c.ReadLimit = 0 }},
		{name: "json format is valid", mutate: func(c *Config) { c.OutputFormat = FormatJSON }},
		{name: "missing address", mutate: func(c *Config) { c.Address = "" }, wantErr: "device address is empty"},
		{name: "bad address", mutate: func(c *Config) { c.Address = "AA:BB" }, wantErr: "invalid device address"},
		{name: "zero connect timeout", mutate: func(c *Config) { c.ConnectTimeout = 0 }, wantErr: "connect timeout"},
		{name: "negative read timeout", mutate: func(c *Config) { c.ReadTimeout = -time.Second }, wantErr: "read timeout"},
		{name: "negative read limit", mutate: func(c *Config) { c.ReadLimit = -1 }, wantErr: "read limit"},
		{name: "unknown format", mutate: func(c *Config) { c.OutputFormat = "xml" }, wantErr: "unknown output format"},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = logrus.Level(42) }, wantErr: "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "aa:bb:cc:dd:ee:ff", cfg.Address, "address MUST be normalised")
		})
	}
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}

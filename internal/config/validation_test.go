package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	return &Config{
		GenerativeModel:   DefaultGenerativeModel,
		EmbeddingModel:    DefaultEmbeddingModel,
		EmbeddingDim:      DefaultEmbeddingDimension,
		MaxOutputTokens:   DefaultMaxOutputTokens,
		MatchThreshold:    DefaultMatchThreshold,
		MatchCount:        DefaultMatchCount,
		RequestsPerMinute: DefaultRequestsPerMinute,
		PostgresHost:      "localhost",
		PostgresPort:      5432,
		PostgresUser:      "sage",
		PostgresDBName:    "sage",
		PostgresSSLMode:   "disable",
		LogLevel:          "info",
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateNil(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidateViolations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty generative model", func(c *Config) { c.GenerativeModel = " " }, ErrInvalidModelName},
		{"empty embedding model", func(c *Config) { c.EmbeddingModel = "" }, ErrInvalidModelName},
		{"zero embedding dim", func(c *Config) { c.EmbeddingDim = 0 }, ErrInvalidEmbeddingDim},
		{"huge embedding dim", func(c *Config) { c.EmbeddingDim = 10000 }, ErrInvalidEmbeddingDim},
		{"zero max tokens", func(c *Config) { c.MaxOutputTokens = 0 }, ErrInvalidMaxTokens},
		{"threshold above 1", func(c *Config) { c.MatchThreshold = 1.5 }, ErrInvalidMatchThreshold},
		{"threshold below -1", func(c *Config) { c.MatchThreshold = -2 }, ErrInvalidMatchThreshold},
		{"zero match count", func(c *Config) { c.MatchCount = 0 }, ErrInvalidMatchCount},
		{"zero requests per minute", func(c *Config) { c.RequestsPerMinute = 0 }, ErrInvalidRateLimit},
		{"negative requests per minute", func(c *Config) { c.RequestsPerMinute = -5 }, ErrInvalidRateLimit},
		{"empty host", func(c *Config) { c.PostgresHost = "" }, ErrInvalidPostgresHost},
		{"port out of range", func(c *Config) { c.PostgresPort = 70000 }, ErrInvalidPostgresPort},
		{"empty db name", func(c *Config) { c.PostgresDBName = "" }, ErrInvalidPostgresDBName},
		{"bad sslmode", func(c *Config) { c.PostgresSSLMode = "maybe" }, ErrInvalidPostgresSSLMode},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
	}
	for _, tt := range tests {
		cfg := validConfig()
		cfg.LogLevel = tt.in
		got, err := cfg.SlogLevel()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "level %q", tt.in)
	}
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates a model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbeddingDim indicates the embedding dimension is out of range.
	ErrInvalidEmbeddingDim = errors.New("invalid embedding dimension")

	// ErrInvalidMaxTokens indicates the max output tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max output tokens")

	// ErrInvalidMatchThreshold indicates the similarity threshold is outside [-1, 1].
	ErrInvalidMatchThreshold = errors.New("invalid match threshold")

	// ErrInvalidMatchCount indicates the match count is not positive.
	ErrInvalidMatchCount = errors.New("invalid match count")

	// ErrInvalidRateLimit indicates the requests-per-minute limit is not positive.
	ErrInvalidRateLimit = errors.New("invalid requests per minute")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidLogLevel indicates the log level string is unknown.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// validSSLModes lists the sslmode values accepted by libpq/pgx.
var validSSLModes = map[string]struct{}{
	"disable":     {},
	"allow":       {},
	"prefer":      {},
	"require":     {},
	"verify-ca":   {},
	"verify-full": {},
}

// Validate checks all configuration values and returns the first violation.
// The API key is deliberately not checked here: commands that never reach a
// provider (migrate, kb list) must work without one. Provider constructors
// check it instead.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if strings.TrimSpace(c.GenerativeModel) == "" {
		return fmt.Errorf("%w: generative_model is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbeddingModel) == "" {
		return fmt.Errorf("%w: embedding_model is empty", ErrInvalidModelName)
	}
	if c.EmbeddingDim <= 0 || c.EmbeddingDim > 4096 {
		return fmt.Errorf("%w: %d (must be in 1..4096)", ErrInvalidEmbeddingDim, c.EmbeddingDim)
	}
	if c.MaxOutputTokens <= 0 || c.MaxOutputTokens > 65536 {
		return fmt.Errorf("%w: %d (must be in 1..65536)", ErrInvalidMaxTokens, c.MaxOutputTokens)
	}
	if c.MatchThreshold < -1 || c.MatchThreshold > 1 {
		return fmt.Errorf("%w: %g (must be in [-1, 1])", ErrInvalidMatchThreshold, c.MatchThreshold)
	}
	if c.MatchCount <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidMatchCount, c.MatchCount)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidRateLimit, c.RequestsPerMinute)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be in 1..65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	if _, ok := validSSLModes[c.PostgresSSLMode]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// SlogLevel converts the configured log level string to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
}

// Package logging provides structured logging configuration using zerolog
// and masking of secrets in log output.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer

	// InvocationID tags every event; empty generates a fresh UUID.
	InvocationID string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, NoColor: true}
	}

	invocationID := cfg.InvocationID
	if invocationID == "" {
		invocationID = uuid.NewString()
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("invocation_id", invocationID).
		Logger()

	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Method selection (requested vs. resolved method)
//   - Request URLs
//   - Per-page progress (fetched, total, has_next)
//
// Info: Normal operation events
//   - Search complete (issue count, duration)
//   - Results file written
//   - Requests that succeeded after a retry
//
// Warn: Warning conditions that don't prevent operation
//   - 429 backoff and retry attempts
//   - GET URLs above the recommended length
//   - Non-2xx responses before they are surfaced
//
// Error: Error conditions requiring attention
//   - Failed requests (transport errors, cancellation)
//   - The single terminal failure of an invocation
//
// Context Fields:
//   - invocation_id: UUID of the run
//   - component: emitting package (jira-client, paginator, jira-query)
//   - method: HTTP method
//   - status: HTTP status code
//   - error_class: Error classification (client, server, rate_limit, network)
//   - attempt / backoff: retry bookkeeping
//   - page / fetched / total: pagination progress

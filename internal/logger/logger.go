// Package logger provides structured logging for redisom
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with redisom-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	level := ParseLevel(cfg.Level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "redisom").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// FromZerolog wraps an existing zerolog logger
func FromZerolog(zl zerolog.Logger) *Logger {
	return &Logger{zlog: zl}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// QueryLogger returns a logger for backend commands
func (l *Logger) QueryLogger(command string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "query").
			Str("command", command).
			Logger(),
	}
}

// SchemaLogger returns a logger for schema registration
func (l *Logger) SchemaLogger(entity string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "schema").
			Str("entity", entity).
			Logger(),
	}
}

// ParserLogger returns a logger for method-name parsing
func (l *Logger) ParserLogger(entity string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "parser").
			Str("entity", entity).
			Logger(),
	}
}

// LogQuery logs a finished backend command with structured fields
func (l *Logger) LogQuery(command, query string, duration time.Duration, rows int, err error) {
	event := l.zlog.Debug()
	if err != nil {
		event = l.zlog.Error().Err(err)
	}
	event.
		Str("component", "query").
		Str("command", command).
		Str("query", query).
		Dur("duration_ms", duration).
		Int("rows", rows).
		Msg("command completed")
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		globalLogger = NewLogger(Config{Level: "info"})
	}
	return globalLogger
}

package logging

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap for the engine binaries. The book itself is synchronous
// and silent; what identifies a log line here is the processing session and
// the batch sequence within it, not a per-request context.
type Logger struct {
	logger *zap.Logger
}

// New builds a production logger tagged with the service name and a fresh
// session id. level is the textual zap level from config ("debug", "info",
// "warn", "error").
func New(service, level string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger: logger.With(
		zap.String("service", service),
		zap.String("session_id", uuid.New().String()),
	)}, nil
}

// WithBatch returns a child logger carrying the eval/apply batch sequence,
// so every line of one batch's processing correlates.
func (l *Logger) WithBatch(seq uint64) *Logger {
	return &Logger{logger: l.logger.With(zap.Uint64("batch_seq", seq))}
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.logger.Info(msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.logger.Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.logger.Fatal(msg, fields...)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

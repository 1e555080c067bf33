// This file contains the zerolog-backed LoggerProvider. The command line
// tools install it at startup so that library logging, the per-class report
// and warning output all flow through the same zerolog pipeline, either as
// plain JSON or through the human readable console writer.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface. Fields
// arrive as alternating key/value pairs in the slog style.
type zerologLogger struct {
	logger zerolog.Logger
}

// Debug implements Logger.Debug.
func (l *zerologLogger) Debug(msg string, fields ...any) {
	emitZerolog(l.logger.Debug(), msg, fields)
}

// Info implements Logger.Info.
func (l *zerologLogger) Info(msg string, fields ...any) {
	emitZerolog(l.logger.Info(), msg, fields)
}

// Warn implements Logger.Warn.
func (l *zerologLogger) Warn(msg string, fields ...any) {
	emitZerolog(l.logger.Warn(), msg, fields)
}

// Error implements Logger.Error.
func (l *zerologLogger) Error(msg string, fields ...any) {
	emitZerolog(l.logger.Error(), msg, fields)
}

// With implements Logger.With.
func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.logger.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(zerologFieldKey(fields[i]), fields[i+1])
	}
	return &zerologLogger{logger: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	zl := toZerologLevel(level)
	return zl >= l.logger.GetLevel() && zl >= zerolog.GlobalLevel()
}

// emitZerolog attaches the key/value pairs to the event and sends it.
// Error values go through AnErr so that zerolog renders them as errors,
// and types implementing LogObjectMarshaler keep their structured form.
func emitZerolog(event *zerolog.Event, msg string, fields []any) {
	for i := 0; i+1 < len(fields); i += 2 {
		key := zerologFieldKey(fields[i])
		switch v := fields[i+1].(type) {
		case zerolog.LogObjectMarshaler:
			event = event.Object(key, v)
		case error:
			event = event.AnErr(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	if len(fields)%2 != 0 {
		// Trailing key without a value, matches slog's badkey convention.
		event = event.Interface("!BADKEY", fields[len(fields)-1])
	}
	event.Msg(msg)
}

func zerologFieldKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ZerologProvider is a LoggerProvider backed by rs/zerolog.
type ZerologProvider struct {
	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewZerologProvider creates a provider writing JSON log lines to w.
//
// Example:
//
//	provider := log.NewZerologProvider(os.Stderr)
//	provider.SetLevel(log.LevelDebug)
//	log.SetLoggerProvider(provider)
func NewZerologProvider(w io.Writer) *ZerologProvider {
	return &ZerologProvider{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// NewZerologConsoleProvider creates a provider writing human readable log
// lines to w through zerolog's console writer.
func NewZerologConsoleProvider(w io.Writer) *ZerologProvider {
	console := zerolog.ConsoleWriter{Out: w}
	return &ZerologProvider{
		logger: zerolog.New(console).With().Timestamp().Logger(),
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.logger}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
// The name is attached as the "component" field on every log entry.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{logger: p.logger.With().Str("component", name).Logger()}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger = p.logger.Level(toZerologLevel(level))
}

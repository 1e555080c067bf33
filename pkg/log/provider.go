// Package log provides the package-level logger registry for tabenc.
//
// This file contains the default LoggerProvider implementation and the
// package-level accessor functions used throughout the library. Estimators
// obtain their loggers through GetLoggerWithName, which routes through a
// swappable provider so that applications and tests can redirect or silence
// library logging without touching estimator code.

package log

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	logger *slog.Logger
}

// Debug implements Logger.Debug.
func (l *slogLogger) Debug(msg string, fields ...any) {
	l.logger.Debug(msg, fields...)
}

// Info implements Logger.Info.
func (l *slogLogger) Info(msg string, fields ...any) {
	l.logger.Info(msg, fields...)
}

// Warn implements Logger.Warn.
func (l *slogLogger) Warn(msg string, fields ...any) {
	l.logger.Warn(msg, fields...)
}

// Error implements Logger.Error.
func (l *slogLogger) Error(msg string, fields ...any) {
	l.logger.Error(msg, fields...)
}

// With implements Logger.With.
func (l *slogLogger) With(fields ...any) Logger {
	return &slogLogger{logger: l.logger.With(fields...)}
}

// Enabled implements Logger.Enabled.
func (l *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return l.logger.Enabled(ctx, slog.Level(level))
}

// SlogProvider is the default LoggerProvider implementation, backed by the
// standard library log/slog package. It emits JSON structured logs with
// stack trace extraction for wrapped errors (see WithStackTraces).
type SlogProvider struct {
	level  *slog.LevelVar
	logger *slog.Logger
}

// NewSlogProvider creates a provider that writes JSON logs to stderr.
// The initial minimum level is LevelInfo, matching the default used by
// SetupLogger.
//
// Example:
//
//	provider := log.NewSlogProvider()
//	provider.SetLevel(log.LevelDebug)
//	log.SetLoggerProvider(provider)
func NewSlogProvider() *SlogProvider {
	level := &slog.LevelVar{}
	level.Set(slog.LevelInfo)

	handler := WithStackTraces(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	return &SlogProvider{
		level:  level,
		logger: slog.New(handler),
	}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *SlogProvider) GetLogger() Logger {
	return &slogLogger{logger: p.logger}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
// The name is attached as the "component" field on every log entry.
func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return &slogLogger{logger: p.logger.With("component", name)}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *SlogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}

// currentProvider is the active provider. All package-level accessors route
// through it under providerMu.
var (
	providerMu      sync.RWMutex
	currentProvider LoggerProvider = NewSlogProvider()
)

// SetLoggerProvider replaces the package-level logger provider.
// Passing nil is ignored. This is typically called once at application
// startup, or in tests via NewTestLoggerProvider.
//
// Example:
//
//	provider, buffer := log.NewTestLoggerProvider(log.LevelDebug)
//	log.SetLoggerProvider(provider)
//	// ... run code under test, then inspect buffer
func SetLoggerProvider(p LoggerProvider) {
	if p == nil {
		return
	}
	providerMu.Lock()
	defer providerMu.Unlock()
	currentProvider = p
}

// GetLogger returns the default logger from the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return currentProvider.GetLogger()
}

// GetLoggerWithName returns a named logger from the current provider.
// Estimators use this to tag their log entries with a component identifier:
//
//	logger := log.GetLoggerWithName("preprocessing.target_encoder")
//	logger.Info("Starting target encoding fit",
//	    log.SamplesKey, len(y),
//	    log.VocabularySizeKey, vocabSize,
//	)
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return currentProvider.GetLoggerWithName(name)
}

// SetLevel sets the minimum log level on the current provider.
func SetLevel(level Level) {
	providerMu.RLock()
	defer providerMu.RUnlock()
	currentProvider.SetLevel(level)
}

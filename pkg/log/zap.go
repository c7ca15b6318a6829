package log

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of a zap.Logger.
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// Debug implements Logger.Debug.
func (l *ZapLogger) Debug(msg string, fields ...any) {
	if l.level.Enabled(zapcore.DebugLevel) {
		l.logger.Debug(msg, zapFields(fields)...)
	}
}

// Info implements Logger.Info.
func (l *ZapLogger) Info(msg string, fields ...any) {
	if l.level.Enabled(zapcore.InfoLevel) {
		l.logger.Info(msg, zapFields(fields)...)
	}
}

// Warn implements Logger.Warn.
func (l *ZapLogger) Warn(msg string, fields ...any) {
	if l.level.Enabled(zapcore.WarnLevel) {
		l.logger.Warn(msg, zapFields(fields)...)
	}
}

// Error implements Logger.Error.
func (l *ZapLogger) Error(msg string, fields ...any) {
	if l.level.Enabled(zapcore.ErrorLevel) {
		l.logger.Error(msg, zapFields(fields)...)
	}
}

// With implements Logger.With.
func (l *ZapLogger) With(fields ...any) Logger {
	return &ZapLogger{logger: l.logger.With(zapFields(fields)...), level: l.level}
}

// Enabled implements Logger.Enabled.
func (l *ZapLogger) Enabled(_ context.Context, level Level) bool {
	return l.level.Enabled(toZapLevel(level))
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func zapFields(fields []any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)/2+1)
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok {
			out = append(out, zap.Error(err))
			if st := extractStacktrace(err); st != "" {
				out = append(out, zap.String(StacktraceKey, st))
			}
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		out = append(out, zap.Any(fmt.Sprint(fields[i]), fields[i+1]))
	}
	return out
}

func toZapLevel(level Level) zapcore.Level {
	switch {
	case level <= LevelDebug:
		return zapcore.DebugLevel
	case level <= LevelInfo:
		return zapcore.InfoLevel
	case level <= LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// ZapProvider implements LoggerProvider with zap's production JSON encoder.
type ZapProvider struct {
	root *ZapLogger
}

// NewZapProvider builds a production zap logger writing to stderr.
func NewZapProvider(level Level) (*ZapProvider, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapProvider{root: &ZapLogger{logger: logger, level: cfg.Level}}, nil
}

// NewZapProviderFromCore wraps an existing core; tests use zaptest/observer
// cores. The level is enforced by the logger, not by the core.
func NewZapProviderFromCore(core zapcore.Core, level Level) *ZapProvider {
	atomic := zap.NewAtomicLevelAt(toZapLevel(level))
	return &ZapProvider{root: &ZapLogger{logger: zap.New(core), level: atomic}}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZapProvider) GetLogger() Logger {
	return p.root
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZapProvider) GetLoggerWithName(name string) Logger {
	return p.root.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZapProvider) SetLevel(level Level) {
	p.root.level.SetLevel(toZapLevel(level))
}

// Sync flushes the root logger.
func (p *ZapProvider) Sync() error {
	return p.root.Sync()
}

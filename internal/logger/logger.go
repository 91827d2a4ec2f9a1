package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging contract shared across the service.
//
// Every call carries a stable event key so log lines can be filtered by what
// happened rather than by message text.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
}

// Options configures the zap-backed logger.
type Options struct {
	Level  string
	Format string
}

// ZapLogger adapts a zap.Logger to Logger.
type ZapLogger struct {
	z *zap.Logger
}

// New builds a zap logger for the given level and encoding.
func New(opts Options) (*ZapLogger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(strings.ToLower(opts.Level)))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapLogger{z: z}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &ZapLogger{z: z}
}

// Named returns a child logger scoped to a component name.
func (l *ZapLogger) Named(name string) *ZapLogger {
	return &ZapLogger{z: l.z.Named(name)}
}

// Sync flushes buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.z.Sync()
}

func (l *ZapLogger) DebugObj(msg, event string, fields map[string]any) {
	l.z.Debug(msg, toFields(event, fields)...)
}

func (l *ZapLogger) InfoObj(msg, event string, fields map[string]any) {
	l.z.Info(msg, toFields(event, fields)...)
}

func (l *ZapLogger) WarnObj(msg, event string, fields map[string]any) {
	l.z.Warn(msg, toFields(event, fields)...)
}

func (l *ZapLogger) ErrorObj(msg, event string, fields map[string]any) {
	l.z.Error(msg, toFields(event, fields)...)
}

func toFields(event string, fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	if event != "" {
		out = append(out, zap.String("event", event))
	}
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) DebugObj(string, string, map[string]any) {}
func (NopLogger) InfoObj(string, string, map[string]any)  {}
func (NopLogger) WarnObj(string, string, map[string]any)  {}
func (NopLogger) ErrorObj(string, string, map[string]any) {}

var (
	_ Logger = (*ZapLogger)(nil)
	_ Logger = NopLogger{}
)

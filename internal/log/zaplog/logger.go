// Package zaplog implements pkg/log.Logger on top of go.uber.org/zap.
package zaplog

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ridgewayhq/ridgeway/pkg/log"
)

// Config controls how the underlying zap core is built.
type Config struct {
	Level       log.Level
	Development bool
	EnableCaller bool
	TimeFormat  string
}

// DefaultConfig returns production-sane defaults: info level, no caller
// annotation, RFC3339 timestamps.
func DefaultConfig() Config {
	return Config{
		Level:       log.InfoLevel,
		Development: false,
		TimeFormat:  time.RFC3339,
	}
}

// Logger adapts a *zap.Logger to pkg/log.Logger.
type Logger struct {
	z *zap.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		CallerKey:      "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if cfg.EnableCaller {
		encoderCfg.CallerKey = "caller"
		encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		toZapLevel(cfg.Level),
	)

	opts := []zap.Option{}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return &Logger{z: zap.New(core, opts...)}, nil
}

func toZapLevel(l log.Level) zapcore.Level {
	switch l {
	case log.DebugLevel:
		return zapcore.DebugLevel
	case log.WarnLevel:
		return zapcore.WarnLevel
	case log.ErrorLevel:
		return zapcore.ErrorLevel
	case log.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *Logger) Debug(msg string, fields ...log.Field) { l.z.Debug(msg, toZapFields(fields)...) }
func (l *Logger) Info(msg string, fields ...log.Field)  { l.z.Info(msg, toZapFields(fields)...) }
func (l *Logger) Warn(msg string, fields ...log.Field)  { l.z.Warn(msg, toZapFields(fields)...) }
func (l *Logger) Error(msg string, fields ...log.Field) { l.z.Error(msg, toZapFields(fields)...) }
func (l *Logger) Fatal(msg string, fields ...log.Field) { l.z.Fatal(msg, toZapFields(fields)...) }

func (l *Logger) With(fields ...log.Field) log.Logger {
	return &Logger{z: l.z.With(toZapFields(fields)...)}
}

func (l *Logger) WithContext(ctx context.Context) log.Logger {
	if traceID := traceIDFromContext(ctx); traceID != "" {
		return &Logger{z: l.z.With(zap.String(log.FieldTraceID, traceID))}
	}
	return l
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.z.Sync() }

func toZapFields(fields []log.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, toZapField(f))
	}
	return out
}

func toZapField(f log.Field) zap.Field {
	switch v := f.Value.(type) {
	case string:
		return zap.String(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case int64:
		return zap.Int64(f.Key, v)
	case float64:
		return zap.Float64(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case time.Time:
		return zap.Time(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case error:
		return zap.Error(v)
	default:
		return zap.Any(f.Key, v)
	}
}

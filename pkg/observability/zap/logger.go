// Package zap is the zap backend for observability.StructuredLogger.
//
// Logs go to stderr by default: `cdk synth` prints the template on stdout and
// the operator tool prints reports there.
package zap

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"syscall"

	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/observability"
	"github.com/lazinessdevs/cloudfrontwebsite/pkg/sanitization"
)

const (
	outputStdout = "stdout"
	outputStderr = "stderr"
)

var (
	ErrUnsupportedLevel  = errors.New("observability/zap: unsupported log level")
	ErrUnsupportedFormat = errors.New("observability/zap: unsupported log format")
	ErrUnsupportedOutput = errors.New("observability/zap: unsupported log output")
)

type Option func(*loggerOptions)

type loggerOptions struct {
	base     *ubzap.Logger
	sanitize observability.SanitizerFunc
}

// WithZapLogger replaces the logger built from LoggerConfig.
func WithZapLogger(logger *ubzap.Logger) Option {
	return func(opts *loggerOptions) {
		opts.base = logger
	}
}

func WithSanitizer(fn observability.SanitizerFunc) Option {
	return func(opts *loggerOptions) {
		opts.sanitize = fn
	}
}

// Logger writes sanitized, scoped entries through zap. Loggers derived with
// With* share one underlying zap logger and one closed flag.
type Logger struct {
	base     *ubzap.Logger
	log      *ubzap.Logger
	sanitize observability.SanitizerFunc
	closed   *atomic.Bool
}

var _ observability.StructuredLogger = (*Logger)(nil)

func NewZapLogger(config observability.LoggerConfig, options ...Option) (observability.StructuredLogger, error) {
	opts := &loggerOptions{sanitize: sanitization.SanitizeFieldValue}
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	base := opts.base
	if base == nil {
		var err error
		if base, err = build(normalizeLoggerConfig(config)); err != nil {
			return nil, err
		}
	}

	return &Logger{
		base:     base,
		log:      base,
		sanitize: opts.sanitize,
		closed:   &atomic.Bool{},
	}, nil
}

func build(cfg observability.LoggerConfig) (*ubzap.Logger, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Level))
	if name == "warning" {
		name = "warn"
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil || level > zapcore.ErrorLevel {
		return nil, ErrUnsupportedLevel
	}

	enc := encoderConfig(cfg.EnableCaller)
	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "console":
		encoder = zapcore.NewConsoleEncoder(enc)
	case "json":
		encoder = zapcore.NewJSONEncoder(enc)
	default:
		return nil, ErrUnsupportedFormat
	}

	var sink zapcore.WriteSyncer
	switch strings.ToLower(strings.TrimSpace(cfg.Output)) {
	case outputStderr:
		sink = zapcore.Lock(os.Stderr)
	case outputStdout:
		sink = zapcore.Lock(os.Stdout)
	default:
		return nil, ErrUnsupportedOutput
	}

	var zopts []ubzap.Option
	if cfg.EnableCaller {
		zopts = append(zopts, ubzap.AddCaller(), ubzap.AddCallerSkip(2))
	}
	return ubzap.New(zapcore.NewCore(encoder, sink, level), zopts...), nil
}

// normalizeLoggerConfig fills defaults: console output for people, json when
// CI is set, info level, stderr.
func normalizeLoggerConfig(cfg observability.LoggerConfig) observability.LoggerConfig {
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = "console"
		if os.Getenv("CI") != "" {
			cfg.Format = "json"
		}
	}
	if strings.TrimSpace(cfg.Level) == "" {
		cfg.Level = "info"
	}
	if strings.TrimSpace(cfg.Output) == "" {
		cfg.Output = outputStderr
	}
	return cfg
}

func encoderConfig(enableCaller bool) zapcore.EncoderConfig {
	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	if enableCaller {
		enc.CallerKey = "caller"
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	}
	return enc
}

func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.write(zapcore.DebugLevel, message, fields)
}
func (l *Logger) Info(message string, fields ...map[string]any) {
	l.write(zapcore.InfoLevel, message, fields)
}
func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.write(zapcore.WarnLevel, message, fields)
}
func (l *Logger) Error(message string, fields ...map[string]any) {
	l.write(zapcore.ErrorLevel, message, fields)
}

func (l *Logger) WithField(key string, value any) observability.StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *Logger) WithFields(fields map[string]any) observability.StructuredLogger {
	return l.with(l.zapFields(fields)...)
}

func (l *Logger) WithRunID(runID string) observability.StructuredLogger {
	return l.with(ubzap.String("run_id", sanitization.SanitizeLogString(runID)))
}

func (l *Logger) WithStack(stack string) observability.StructuredLogger {
	return l.with(ubzap.String("stack", sanitization.SanitizeLogString(stack)))
}

func (l *Logger) WithResource(resource string) observability.StructuredLogger {
	return l.with(ubzap.String("resource", sanitization.SanitizeLogString(resource)))
}

// Flush syncs the sink. Terminals and pipes reject fsync with EINVAL or
// ENOTTY; that is not a lost write and is not reported.
func (l *Logger) Flush(ctx context.Context) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if err := l.base.Sync(); err != nil && !unsyncableSink(err) {
		return err
	}
	return nil
}

// Close flushes once and drops every later entry.
func (l *Logger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.Flush(context.Background())
}

func (l *Logger) with(fields ...ubzap.Field) *Logger {
	next := *l
	next.log = l.log.With(fields...)
	return &next
}

func (l *Logger) write(level zapcore.Level, message string, sets []map[string]any) {
	if l.closed.Load() {
		return
	}
	ce := l.log.Check(level, sanitization.SanitizeLogString(message))
	if ce == nil {
		return
	}
	var fields []ubzap.Field
	for _, set := range sets {
		fields = append(fields, l.zapFields(set)...)
	}
	ce.Write(fields...)
}

func (l *Logger) zapFields(set map[string]any) []ubzap.Field {
	out := make([]ubzap.Field, 0, len(set))
	for k, v := range set {
		if l.sanitize != nil {
			v = l.sanitize(k, v)
		}
		out = append(out, ubzap.Any(k, v))
	}
	return out
}

func unsyncableSink(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}

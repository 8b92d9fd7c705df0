package observability

import (
	"context"
	"time"
)

type SanitizerFunc func(key string, value any) any

// LogEntry is one recorded log line. Only the test logger materializes
// entries; the zap backend writes straight to its encoder.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`

	RunID    string `json:"run_id,omitempty"`
	Stack    string `json:"stack,omitempty"`
	Resource string `json:"resource,omitempty"`
}

// StructuredLogger is the logging surface shared by the CDK app, the
// operator tool and preflight checks.
//
// Scopes follow a single synth or tool run: the run, the stack being
// synthesized, and the resource node being declared.
type StructuredLogger interface {
	Debug(message string, fields ...map[string]any)
	Info(message string, fields ...map[string]any)
	Warn(message string, fields ...map[string]any)
	Error(message string, fields ...map[string]any)

	WithField(key string, value any) StructuredLogger
	WithFields(fields map[string]any) StructuredLogger

	WithRunID(runID string) StructuredLogger
	WithStack(stack string) StructuredLogger
	WithResource(resource string) StructuredLogger

	Flush(ctx context.Context) error
	Close() error
}

// LoggerConfig is the `log:` block of the website config file.
//
// Output selects the sink: "stderr" (default) or "stdout". The CDK CLI reads
// the cloud assembly from disk, so either is safe during synth.
type LoggerConfig struct {
	Format       string `json:"format" yaml:"format"`
	Level        string `json:"level" yaml:"level"`
	Output       string `json:"output" yaml:"output"`
	EnableCaller bool   `json:"enable_caller" yaml:"enable_caller"`
}

package observability

import (
	"context"
	"sync"
	"time"

	"github.com/lazinessdevs/cloudfrontwebsite/pkg/sanitization"
)

// TestLogger records entries in memory. Loggers derived through With* share
// one recording, so a test can hand a scoped logger to the code under test
// and read everything back from the root.
type TestLogger struct {
	rec   *recording
	scope LogEntry
}

type recording struct {
	mu      sync.Mutex
	entries []LogEntry
	flushes int
	closed  bool
}

var _ StructuredLogger = (*TestLogger)(nil)

func NewTestLogger() *TestLogger {
	return &TestLogger{rec: &recording{}}
}

func (l *TestLogger) Entries() []LogEntry {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	return append([]LogEntry(nil), l.rec.entries...)
}

// Messages returns the messages of all recorded entries, in order.
func (l *TestLogger) Messages() []string {
	var out []string
	for _, e := range l.Entries() {
		out = append(out, e.Message)
	}
	return out
}

// Flushes reports how many times Flush succeeded.
func (l *TestLogger) Flushes() int {
	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	return l.rec.flushes
}

func (l *TestLogger) Debug(message string, fields ...map[string]any) { l.record("debug", message, fields) }
func (l *TestLogger) Info(message string, fields ...map[string]any)  { l.record("info", message, fields) }
func (l *TestLogger) Warn(message string, fields ...map[string]any)  { l.record("warn", message, fields) }
func (l *TestLogger) Error(message string, fields ...map[string]any) { l.record("error", message, fields) }

func (l *TestLogger) WithField(key string, value any) StructuredLogger {
	return l.WithFields(map[string]any{key: value})
}

func (l *TestLogger) WithFields(fields map[string]any) StructuredLogger {
	next := l.derive()
	for k, v := range fields {
		next.scope.Fields[k] = v
	}
	return next
}

func (l *TestLogger) WithRunID(runID string) StructuredLogger {
	next := l.derive()
	next.scope.RunID = runID
	return next
}

func (l *TestLogger) WithStack(stack string) StructuredLogger {
	next := l.derive()
	next.scope.Stack = stack
	return next
}

func (l *TestLogger) WithResource(resource string) StructuredLogger {
	next := l.derive()
	next.scope.Resource = resource
	return next
}

func (l *TestLogger) Flush(ctx context.Context) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	l.rec.mu.Lock()
	l.rec.flushes++
	l.rec.mu.Unlock()
	return nil
}

// Close stops recording for this logger and everything derived from it.
func (l *TestLogger) Close() error {
	l.rec.mu.Lock()
	l.rec.closed = true
	l.rec.mu.Unlock()
	return nil
}

func (l *TestLogger) derive() *TestLogger {
	scope := l.scope
	scope.Fields = make(map[string]any, len(l.scope.Fields))
	for k, v := range l.scope.Fields {
		scope.Fields[k] = v
	}
	return &TestLogger{rec: l.rec, scope: scope}
}

func (l *TestLogger) record(level, message string, fields []map[string]any) {
	entry := l.scope
	entry.Timestamp = time.Now()
	entry.Level = level
	entry.Message = sanitization.SanitizeLogString(message)
	entry.Fields = map[string]any{}
	for _, set := range append([]map[string]any{l.scope.Fields}, fields...) {
		for k, v := range set {
			entry.Fields[k] = sanitization.SanitizeFieldValue(k, v)
		}
	}

	l.rec.mu.Lock()
	defer l.rec.mu.Unlock()
	if !l.rec.closed {
		l.rec.entries = append(l.rec.entries, entry)
	}
}

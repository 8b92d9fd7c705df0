package observability

import (
	"context"
	"errors"
	"time"
)

// NotifyTimeout bounds the single notification a failed run sends.
const NotifyTimeout = 10 * time.Second

// Failure describes why a synth or tool run aborted. A run reports at most
// one Failure.
type Failure struct {
	Time    time.Time      `json:"time"`
	Command string         `json:"command"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`

	RunID    string `json:"run_id,omitempty"`
	Stack    string `json:"stack,omitempty"`
	Resource string `json:"resource,omitempty"`
}

// FailureNotifier delivers a Failure to operators outside the terminal.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, failure Failure) error
}

// ReportFailure logs f at error level in its stack and resource scope, then
// hands it to notifier once. A nil notifier only logs. A delivery error is
// logged as a warning and returned; it never replaces the original failure.
func ReportFailure(ctx context.Context, log StructuredLogger, notifier FailureNotifier, f Failure) error {
	if log == nil {
		log = NewNoOpLogger()
	}
	if f.Time.IsZero() {
		f.Time = time.Now().UTC()
	}

	scoped := log
	if f.Stack != "" {
		scoped = scoped.WithStack(f.Stack)
	}
	if f.Resource != "" {
		scoped = scoped.WithResource(f.Resource)
	}
	fields := make(map[string]any, len(f.Fields)+2)
	for k, v := range f.Fields {
		fields[k] = v
	}
	fields["command"] = f.Command
	fields["code"] = f.Code
	scoped.Error(f.Message, fields)

	if notifier == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, NotifyTimeout)
	defer cancel()

	if err := notifier.NotifyFailure(ctx, f); err != nil {
		scoped.Warn("failure notification not delivered", map[string]any{"error": err.Error()})
		return errors.Join(errors.New("observability: notify failure"), err)
	}
	return nil
}

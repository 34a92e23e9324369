package churnboard

import (
	"context"

	"github.com/rs/zerolog"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// LogTelemetry writes events as structured log lines. Events carrying an
// "error" key are logged at error level.
type LogTelemetry struct {
	logger zerolog.Logger
}

// NewLogTelemetry wraps a zerolog logger.
func NewLogTelemetry(logger zerolog.Logger) *LogTelemetry {
	return &LogTelemetry{logger: logger}
}

// Record implements Telemetry.
func (t *LogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	entry := t.logger.Info()
	if errValue, ok := payload["error"]; ok && errValue != nil {
		entry = t.logger.Error()
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		entry = entry.Str("request_id", id)
	}
	entry.Fields(payload).Msg(event)
}

type requestIDKey struct{}

// WithRequestID stores the inbound request id so downstream calls and log
// lines can share it.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

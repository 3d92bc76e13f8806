package ports

import "context"

// SpanConfig holds the optional attributes a SpanOption can set on a span
// before it starts.
type SpanConfig struct {
	Attributes map[string]any
}

// SpanOption configures a span at creation time.
type SpanOption func(*SpanConfig)

// WithAttribute attaches a key-value pair to a span's SpanConfig at start
// time, before the underlying tracer has created it.
func WithAttribute(key string, value any) SpanOption {
	return func(cfg *SpanConfig) {
		if cfg.Attributes == nil {
			cfg.Attributes = make(map[string]any)
		}
		cfg.Attributes[key] = value
	}
}

// Span represents one traced unit of work — one task process instance.
type Span interface {
	// End completes the span.
	End()
	// RecordError marks the span as failed.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
	// Write streams a chunk of task output into the span's log record.
	Write(p []byte) (n int, err error)
	// MarkExecStart signals that command execution has begun.
	MarkExecStart()
}

// Tracer creates spans for task execution and forwards their lifecycle to a
// Renderer (spec's run/task tracing, fed to the TUI or linear renderer).
type Tracer interface {
	// Start begins a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// Shutdown releases tracer resources.
	Shutdown(ctx context.Context) error
}

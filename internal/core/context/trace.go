package context

import (
	"context"
)

// TraceContext identifies one API request. The IDs end up in log entries,
// audit rows and error bodies.
type TraceContext struct {
	// TraceID is the W3C trace-id (32 hex chars) shared with upstream spans
	TraceID   string
	RequestID string
}

type traceContextKey struct{}

func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the request trace, or nil outside of a request (worker,
// seed, tests).
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// RequestIDOrEmpty is safe on a nil trace.
func (t *TraceContext) RequestIDOrEmpty() string {
	if t == nil {
		return ""
	}
	return t.RequestID
}

// LogFields returns the key/value pairs attached to every log entry of the
// request.
func (t *TraceContext) LogFields() []any {
	if t == nil {
		return nil
	}
	return []any{"trace_id", t.TraceID, "request_id", t.RequestID}
}

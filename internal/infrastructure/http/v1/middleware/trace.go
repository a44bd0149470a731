package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "workshop/internal/core/context"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderTraceID     = "X-Trace-ID"
	HeaderTraceParent = "traceparent"
)

// Trace reads or generates the request and trace IDs. A W3C traceparent
// header wins over X-Trace-ID so IDs line up with upstream spans.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceID := traceIDFromParent(c.GetHeader(HeaderTraceParent))
		if traceID == "" {
			traceID = c.GetHeader(HeaderTraceID)
		}
		if traceID == "" {
			traceID = strings.ReplaceAll(uuid.New().String(), "-", "")
		}

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{
			TraceID:   traceID,
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}

// traceIDFromParent extracts the trace-id of "00-<trace-id>-<parent-id>-<flags>".
func traceIDFromParent(header string) string {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) != 4 || len(parts[1]) != 32 {
		return ""
	}
	if strings.Trim(parts[1], "0") == "" {
		return ""
	}
	for _, r := range parts[1] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return ""
		}
	}
	return parts[1]
}

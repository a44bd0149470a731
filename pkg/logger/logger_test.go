package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "workshop/internal/core/context"
)

func TestFromContextAddsTraceAndUser(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{zap.New(core).Sugar()}

	ctx := appctx.WithTrace(context.Background(), &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-1"})
	ctx = WithLogger(ctx, l)

	Info(ctx, "invoice submitted", "number", "INV-2025-00001")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "INV-2025-00001", fields["number"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "nonsense", OutputPaths: []string{"stderr"}, Service: "test"})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	nop := Nop()
	SetDefault(nop)
	assert.Same(t, nop, Default())
}

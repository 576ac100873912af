package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled tracing", func(t *testing.T) {
		tracer, shutdown, err := Setup(ctx, DefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, tracer)

		_, span := tracer.Start(ctx, "test")
		assert.False(t, span.SpanContext().IsValid())
		span.End()

		assert.NoError(t, shutdown(ctx))
	})

	t.Run("enabled tracing with unreachable collector", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.ZipkinURL = "http://invalid-url:9411/api/v2/spans"

		tracer, shutdown, err := Setup(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, tracer)

		_, span := tracer.Start(ctx, "test")
		assert.True(t, span.SpanContext().IsValid())
		span.End()

		// Export fails against an unreachable host; shutdown still returns.
		sctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_ = shutdown(sctx)
	})

	t.Run("invalid collector URL", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = true
		cfg.ZipkinURL = "::not a url"

		_, _, err := Setup(ctx, cfg)
		assert.Error(t, err)
	})
}

package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext(t *testing.T) {
	t.Run("round-trips a logger through context", func(t *testing.T) {
		logger := zap.NewNop()
		ctx := WithContext(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("missing logger yields a no-op", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		logger.Info("must not panic")
	})
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

	t.Run("request id is retrievable from context", func(t *testing.T) {
		assert.Equal(t, "req-123", GetRequestID(ctx))
	})

	t.Run("enriched logger carries the request id field", func(t *testing.T) {
		enriched.Info("hello")
		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	})

	t.Run("enriched logger is attached to the context", func(t *testing.T) {
		assert.Same(t, enriched, FromContext(ctx))
	})
}

func TestGetRequestID(t *testing.T) {
	t.Run("empty without a request id", func(t *testing.T) {
		assert.Equal(t, "", GetRequestID(context.Background()))
	})
}

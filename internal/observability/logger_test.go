package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapLogger points the package logger at a buffer so tests can
// inspect what FromContext actually emits.
func swapLogger(t *testing.T) *bytes.Buffer {
	t.Helper()

	saved := logger
	t.Cleanup(func() { logger = saved })

	buf := &bytes.Buffer{}
	logger = slog.New(slog.NewJSONHandler(buf, nil))
	return buf
}

func TestInitLogger(t *testing.T) {
	t.Run("json_format", func(t *testing.T) {
		InitLogger("info", "json")
		assert.NotNil(t, logger)
	})

	t.Run("text_format", func(t *testing.T) {
		InitLogger("info", "text")
		assert.NotNil(t, logger)
	})

	t.Run("unknown_format_falls_back_to_text", func(t *testing.T) {
		InitLogger("info", "yaml")
		assert.NotNil(t, logger)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown", "verbose", slog.LevelInfo},
		{"empty", "", slog.LevelInfo},
		{"uppercase_defaults_to_info", "DEBUG", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestFromContext_AttachesRequestID(t *testing.T) {
	buf := swapLogger(t)

	ctx := WithRequestID(context.Background(), "req-123")
	FromContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
}

func TestFromContext_AttachesParticipantID(t *testing.T) {
	buf := swapLogger(t)

	ctx := WithParticipantID(context.Background(), "p-456")
	FromContext(ctx).Info("handled")

	assert.Contains(t, buf.String(), `"participant_id":"p-456"`)
}

func TestFromContext_AttachesBothValues(t *testing.T) {
	buf := swapLogger(t)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithParticipantID(ctx, "p-456")
	FromContext(ctx).Info("handled")

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"participant_id":"p-456"`)
}

func TestFromContext_IgnoresEmptyValues(t *testing.T) {
	buf := swapLogger(t)

	ctx := WithRequestID(context.Background(), "")
	FromContext(ctx).Info("handled")

	assert.NotContains(t, buf.String(), "request_id")
}

func TestFromContext_NoValues(t *testing.T) {
	swapLogger(t)

	result := FromContext(context.Background())
	require.NotNil(t, result)
	assert.Same(t, logger, result)
}

func TestFromContext_Fallback(t *testing.T) {
	saved := logger
	defer func() { logger = saved }()

	logger = nil
	result := FromContext(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, slog.Default(), result)
}

func TestWithRequestID(t *testing.T) {
	t.Run("adds_request_id_to_context", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "test-request-id")
		assert.Equal(t, "test-request-id", ctx.Value(requestIDKey))
	})

	t.Run("overwrites_existing_request_id", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "old-id")
		ctx = WithRequestID(ctx, "new-id")
		assert.Equal(t, "new-id", ctx.Value(requestIDKey))
	})
}

func TestWithParticipantID(t *testing.T) {
	t.Run("adds_participant_id_to_context", func(t *testing.T) {
		ctx := WithParticipantID(context.Background(), "p-1")
		assert.Equal(t, "p-1", ctx.Value(participantIDKey))
	})

	t.Run("preserves_other_context_values", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithParticipantID(ctx, "p-1")

		assert.Equal(t, "req-1", ctx.Value(requestIDKey))
		assert.Equal(t, "p-1", ctx.Value(participantIDKey))
	})
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogging(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Level: "info", Format: "json", ServiceName: "test-service", Version: "1.0.0", Environment: "test"}
	prev := slog.Default()
	defer slog.SetDefault(prev)

	InitLoggerWithWriter(cfg, &buf)
	slog.Info("rolled", "expr", "2d6", "value", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test-service", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "rolled", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "2d6", entry["expr"])
	assert.Equal(t, float64(7), entry["value"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "text"}, &buf)
	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Config{Level: "DEBUG"}.LogLevel())
	assert.Equal(t, slog.LevelWarn, Config{Level: "warning"}.LogLevel())
	assert.Equal(t, slog.LevelError, Config{Level: "error"}.LogLevel())
	assert.Equal(t, slog.LevelInfo, Config{Level: "bogus"}.LogLevel())
}

func TestRequestIDRoundTrip(t *testing.T) {
	_, ok := RequestIDFromContext(context.Background())
	assert.False(t, ok)

	id := GenerateRequestID()
	ctx := WithRequestID(context.Background(), id)
	got, ok := RequestIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.NotNil(t, FromContext(ctx))
}

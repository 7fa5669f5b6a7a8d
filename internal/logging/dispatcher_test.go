package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "failed to parse log output")
	return entry
}

func TestDispatcherLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	dl.Debug("test message", "key1", "value1", "key2", 42)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "dispatcher", entry["component"])
	assert.Equal(t, "value1", entry["key1"])
	assert.Equal(t, float64(42), entry["key2"])
}

func TestDispatcherLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(*DispatcherLogger)
		level string
	}{
		{"info", func(l *DispatcherLogger) { l.Info("m", "status", "ok") }, "info"},
		{"warn", func(l *DispatcherLogger) { l.Warn("m", "status", "ok") }, "warn"},
		{"error", func(l *DispatcherLogger) { l.Error("m", "status", "ok") }, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewDispatcherLogger(zerolog.New(&buf)))

			entry := decodeEntry(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "ok", entry["status"])
		})
	}
}

func TestDispatcherLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDispatcherLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	dl.Debug("hidden")

	assert.Empty(t, buf.String())
}

func TestToFields(t *testing.T) {
	fields := toFields([]any{"a", 1, 2, "skipped", "dangling"})

	assert.Equal(t, map[string]any{"a": 1}, fields)
}

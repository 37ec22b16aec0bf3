package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleRecord(t *testing.T, opts PrettyHandlerOptions, record slog.Record) string {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, opts)
	require.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")

	err := handler.Handle(context.Background(), record)
	require.NoError(t, err, "Expected Handle to not return an error")
	return buf.String()
}

func TestNewPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true},
	})

	assert.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
	assert.NotNil(t, handler.Handler, "Expected the wrapped slog handler to be set")
}

func TestPrettyHandlerHandle(t *testing.T) {
	t.Run("Log lines carry level, message and attributes", func(t *testing.T) {
		levels := map[slog.Level]string{
			slog.LevelDebug: "DEBUG:",
			slog.LevelInfo:  "INFO:",
			slog.LevelWarn:  "WARN:",
			slog.LevelError: "ERROR:",
		}

		for level, prefix := range levels {
			record := slog.NewRecord(time.Now(), level, "resolved entity", 0)
			record.AddAttrs(slog.String("entity_type", "person"), slog.Int("entity_id", 42))

			output := handleRecord(t, PrettyHandlerOptions{
				SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
			}, record)

			assert.Contains(t, output, prefix, "Expected the level prefix")
			assert.Contains(t, output, "resolved entity", "Expected the message")
			assert.Contains(t, output, "entity_type", "Expected the attribute key")
			assert.Contains(t, output, "42", "Expected the attribute value")
		}
	})

	t.Run("No attributes yields an empty JSON object", func(t *testing.T) {
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "plain message", 0)

		output := handleRecord(t, PrettyHandlerOptions{}, record)

		assert.Contains(t, output, "plain message")
		assert.Contains(t, output, "{}", "Expected an empty JSON object for attributes")
	})

	t.Run("Nested attribute values are serialized", func(t *testing.T) {
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "queued review", 0)
		record.AddAttrs(slog.Any("raw_data", map[string]interface{}{
			"first_name": "Spencer",
		}))

		output := handleRecord(t, PrettyHandlerOptions{}, record)

		assert.Contains(t, output, "raw_data", "Expected the attribute key")
		assert.Contains(t, output, "Spencer", "Expected the nested value")
	})

	t.Run("Timestamps are formatted as [HH:MM:SS.mmm]", func(t *testing.T) {
		record := slog.NewRecord(time.Now(), slog.LevelInfo, "time test", 0)

		output := handleRecord(t, PrettyHandlerOptions{}, record)

		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, output,
			"Expected output to contain a bracketed timestamp")
	})
}

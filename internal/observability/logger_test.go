package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sealevel-io/tidemark/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// syncBuffer adapts a bytes.Buffer to zapcore.WriteSyncer so tests can
// capture console output without touching os.Stdout.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("console format colorizes levels", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf syncBuffer
		cfg := config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "test-service",
			Colors:      config.ColorConfig{Info: "green"},
		}
		Initialize(cfg, &buf)

		GetLogger().Info("projection finished")

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "projection finished")
		assert.Contains(t, output, colorGreen)
		assert.Contains(t, output, colorReset)
		assert.Contains(t, output, "test-service.")
	})

	t.Run("json format emits structured lines", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf syncBuffer
		cfg := config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "json-test",
		}
		Initialize(cfg, &buf)

		GetLogger().Info("projection finished")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "projection finished", entry["msg"])
		assert.Equal(t, "json-test", entry["logger"])
	})

	t.Run("respects the configured level", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf syncBuffer
		Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, &buf)

		GetLogger().Info("too quiet to appear")
		GetLogger().Warn("loud enough")

		output := buf.String()
		assert.NotContains(t, output, "too quiet to appear")
		assert.Contains(t, output, "loud enough")
	})

	t.Run("falls back to info on a bad level", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf syncBuffer
		Initialize(config.LoggerConfig{Level: "extremely-verbose", Format: "json"}, &buf)

		GetLogger().Debug("filtered at info")
		GetLogger().Info("kept at info")

		output := buf.String()
		assert.NotContains(t, output, "filtered at info")
		assert.Contains(t, output, "kept at info")
	})

	t.Run("second initialization is a no-op", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var first, second syncBuffer
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, &first)
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, &second)

		GetLogger().Info("routed to the first writer")
		assert.Contains(t, first.String(), "routed to the first writer")
		assert.Empty(t, second.String())
	})
}

func TestGetLogger_FallbackBeforeInitialize(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	logger := GetLogger()
	require.NotNil(t, logger)
	// Must not panic; the fallback is a functioning development logger.
	logger.Debug("fallback logger in use")
}

var _ zapcore.WriteSyncer = (*syncBuffer)(nil)

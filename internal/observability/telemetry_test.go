package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	t.Run("empty endpoint disables export", func(t *testing.T) {
		cfg := NewConfig("flowsync-server", "1.0.0", "")
		assert.False(t, cfg.Enabled)
		assert.Equal(t, "flowsync-server", cfg.ServiceName)
		assert.Equal(t, "1.0.0", cfg.ServiceVersion)
	})

	t.Run("configured endpoint enables export", func(t *testing.T) {
		cfg := NewConfig("flowsync-server", "1.0.0", "collector:4317")
		assert.True(t, cfg.Enabled)
		assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	})

	t.Run("environment comes from ENVIRONMENT", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "staging")
		assert.Equal(t, "staging", NewConfig("svc", "v", "").Environment)
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	// Unknown or empty strings fall back to info
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

// ABOUTME: Tests for logger construction
// ABOUTME: Covers level parsing and the json and text encodings
package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		" WARN ":  log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"":        log.InfoLevel,
		"bogus":   log.InfoLevel,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseLevel(raw), "level %q", raw)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "debug", Format: "json"})

	logger.Debug("loaded collection", "collection", "rooms", "count", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "loaded collection", line["msg"])
	assert.Equal(t, "rooms", line["collection"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "warn"})

	logger.Info("quiet")
	assert.Empty(t, buf.String())

	logger.Warn("loud", "id", "r1")
	assert.Contains(t, buf.String(), "loud")
	assert.Contains(t, buf.String(), "id=r1")
}

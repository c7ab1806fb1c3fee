package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	logger.Info().Str("symbol", "AAPL").Msg("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn().Str("symbol", "AAPL").Msg("kept")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "AAPL", entry["symbol"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "console", &buf)
	logger.Debug().Int("rows", 3).Msg("calculated")
	assert.Contains(t, buf.String(), "calculated")
	assert.Contains(t, buf.String(), "rows=3")
}

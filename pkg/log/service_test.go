package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	config "github.com/mwantia/updater/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   Debug,
		"INFO":    Info,
		"warning": Warn,
		"Error":   Error,
		"fatal":   Fatal,
		"bogus":   Info,
	}
	for in, want := range tests {
		assert.Equal(t, want, Parse(in), in)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("updater", config.LogServerConfig{Level: "WARN"}, &buf)

	logger.Info("hidden %d", 1)
	logger.Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "[updater]")
}

func TestLoggerNamedJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("updater", config.LogServerConfig{Level: "DEBUG", JSON: true}, &buf)

	logger.Named("gerrit").Error("upstream down")

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "updater/gerrit", entry.Service)
	assert.Equal(t, "upstream down", entry.Message)
}

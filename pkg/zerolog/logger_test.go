package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" info ", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level))
		})
	}
}

func TestJSONLogger_LevelThreshold(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger("joauth", &buf)
	log.SetLevel("warn")

	log.Debug("dropped debug")
	log.Info("dropped info")
	log.Warn("kept warn", "user", "alice")
	log.Error("kept error", "error", errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "warn", first["level"])
	assert.Equal(t, "kept warn", first["message"])
	assert.Equal(t, "alice", first["user"])
	assert.Equal(t, "joauth", first["service"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "boom", second["error"])
}

func TestLogger_SkipsNonStringKeys(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger("joauth", &buf)

	log.Info("msg", 42, "ignored", "ok", true, "dangling")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, true, entry["ok"])
	assert.NotContains(t, entry, "dangling")
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger("joauth", &buf).WithContext(map[string]interface{}{"operation": "register"})

	log.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "register", entry["operation"])
}

func TestConsoleLogger_WritesToSink(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger("joauth", &buf)
	log.SetLevel("debug")

	log.Debug("console line", "k", "v")

	out := buf.String()
	assert.Contains(t, out, "console line")
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "k=v")
}

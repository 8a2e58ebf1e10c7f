package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFromString(t *testing.T) {
	cases := map[string]slog.Level{
		"error":     slog.LevelError,
		" WARN ":    slog.LevelWarn,
		"warning":   slog.LevelWarn,
		"info":      slog.LevelInfo,
		"debug":     slog.LevelDebug,
		"gibberish": slog.LevelDebug,
	}
	for in, want := range cases {
		require.Equal(t, want, levelFromString(in), in)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "json").Debug("hidden")
	require.Zero(t, buf.Len())

	newLogger(&buf, "info", "JSON").Info("run finished", "total", 3)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "run finished", entry["msg"])
	require.Equal(t, "vaultx-ingest", entry["service"])
	require.Equal(t, float64(3), entry["total"])
}

package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	l := Cron(base, "scheduler")

	l.Info("wake", "now", "x")
	require.Empty(t, buf.String(), "cron info is demoted to debug")

	l.Error(errors.New("panic: boom"), "job failed", "entry", 1)
	out := buf.String()
	require.Contains(t, out, "level=ERROR")
	require.Contains(t, out, "component=scheduler")
	require.Contains(t, out, `error="panic: boom"`)
	require.Contains(t, out, "entry=1")
}

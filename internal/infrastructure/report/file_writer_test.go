package report_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/infrastructure/report"
)

func TestWriteCreatesDirAndReplaces(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "logs", "nested")
	w := report.NewFileWriter(dir)

	news := domain.NewPipelineReport("news")
	news.Status = domain.StatusCompleted
	news.Total = 3
	run := domain.RunReport{RunID: "r1", Timestamp: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), News: news}

	path, err := w.Write(context.Background(), "news", run)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "news-report.json"), path)

	run.RunID = "r2"
	_, err = w.Write(context.Background(), "news", run)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got domain.RunReport
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "r2", got.RunID)
	require.Equal(t, 3, got.News.Total)
	require.Nil(t, got.Tools)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not linger")
}

func TestWriteCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := report.NewFileWriter(t.TempDir()).Write(ctx, "tools", map[string]int{})
	require.ErrorIs(t, err, context.Canceled)
}

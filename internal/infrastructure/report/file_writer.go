package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"VaultXIngest/internal/ports"
)

// FileWriter stores run reports as indented JSON files under one directory.
type FileWriter struct {
	dir string
}

var _ ports.ReportWriter = (*FileWriter)(nil)

func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{dir: dir}
}

// Write replaces {dir}/{name}-report.json atomically and returns its path.
func (w *FileWriter) Write(ctx context.Context, name string, report any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	target := filepath.Join(w.dir, name+"-report.json")
	tmp, err := os.CreateTemp(w.dir, name+"-report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("publish report: %w", err)
	}
	return target, nil
}

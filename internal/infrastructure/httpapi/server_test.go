package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"VaultXIngest/internal/domain"
)

type fakeStatus struct {
	next time.Time
	last *domain.RunReport
}

func (f fakeStatus) NextRun() time.Time { return f.next }

func (f fakeStatus) LastReport() (domain.RunReport, bool) {
	if f.last == nil {
		return domain.RunReport{}, false
	}
	return *f.last, true
}

type fakeCounter struct {
	news, tools int
	err         error
}

func (f fakeCounter) Counts(context.Context) (int, int, error) { return f.news, f.tools, f.err }

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := New(":0", fakeStatus{}, nil, nil)
	rec, body := get(t, s.Routes(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", body["status"])
}

func TestStatusWithReport(t *testing.T) {
	t.Parallel()

	next := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	tools := domain.NewPipelineReport("tools")
	tools.Status = domain.StatusCompleted
	last := domain.RunReport{RunID: "run-1", Timestamp: next.Add(-24 * time.Hour), Tools: tools}

	s := New(":0", fakeStatus{next: next, last: &last}, fakeCounter{news: 12, tools: 4}, nil)
	rec, body := get(t, s.Routes(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2026-10-16T09:00:00Z", body["nextRun"])
	require.Equal(t, float64(12), body["storedNews"])
	require.Equal(t, float64(4), body["storedTools"])
	report := body["lastReport"].(map[string]any)
	require.Equal(t, "run-1", report["runId"])
}

func TestStatusBeforeFirstRun(t *testing.T) {
	t.Parallel()

	s := New(":0", fakeStatus{}, fakeCounter{err: errors.New("store down")}, nil)
	_, body := get(t, s.Routes(), "/status")
	require.NotContains(t, body, "nextRun")
	require.NotContains(t, body, "lastReport")
	require.Equal(t, "store down", body["storeError"])
}

package domain

import "time"

// RunStatus enumerates the lifecycle of one sub-pipeline inside a run.
type RunStatus string

const (
	StatusNotStarted RunStatus = "not_started"
	StatusRunning    RunStatus = "running"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// WriteStats counts persistence outcomes for a batch.
type WriteStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

// PipelineReport aggregates what a single tools or news pipeline did.
type PipelineReport struct {
	Pipeline     string            `json:"pipeline"`
	Status       RunStatus         `json:"status"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   time.Time         `json:"finishedAt"`
	Fetched      int               `json:"fetched"`
	Malformed    int               `json:"malformed"`
	Duplicates   int               `json:"duplicates"`
	Truncated    int               `json:"truncated"`
	Total        int               `json:"total"`
	Written      WriteStats        `json:"written"`
	BySource     map[string]int    `json:"bySource"`
	ByCategory   map[string]int    `json:"byCategory"`
	BySentiment  map[string]int    `json:"bySentiment,omitempty"`
	SourceErrors map[string]string `json:"sourceErrors,omitempty"`
	Skipped      map[string]string `json:"skipped,omitempty"`
	// Warnings flag degraded but completed runs, such as every source down.
	Warnings     []string          `json:"warnings,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// NewPipelineReport returns a report in the not-started state with empty aggregates.
func NewPipelineReport(pipeline string) *PipelineReport {
	return &PipelineReport{
		Pipeline:   pipeline,
		Status:     StatusNotStarted,
		BySource:   map[string]int{},
		ByCategory: map[string]int{},
	}
}

// RunReport is the JSON document written at the end of an invocation.
type RunReport struct {
	RunID     string          `json:"runId"`
	Timestamp time.Time       `json:"timestamp"`
	Tools     *PipelineReport `json:"tools,omitempty"`
	News      *PipelineReport `json:"news,omitempty"`
}

// Failed reports whether any executed sub-pipeline ended in failure.
func (r RunReport) Failed() bool {
	for _, p := range []*PipelineReport{r.Tools, r.News} {
		if p != nil && p.Status == StatusFailed {
			return true
		}
	}
	return false
}

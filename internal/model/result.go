package model

import "time"

// ProcessAction is what the document processor did with a document.
type ProcessAction string

const (
	ActionCreated ProcessAction = "created"
	ActionUpdated ProcessAction = "updated"
	ActionSkipped ProcessAction = "skipped"
)

// ProcessResult is the outcome of processing one source document. Error is
// set only when Success is false.
type ProcessResult struct {
	Success   bool          `json:"success"`
	Action    ProcessAction `json:"action,omitempty"`
	ProjectID string        `json:"project_id,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ScrapingResult aggregates per-source outcomes for one run.
type ScrapingResult struct {
	Source          string   `json:"source"`
	DocumentsFound  int      `json:"documents_found"`
	ProjectsCreated int      `json:"projects_created"`
	ProjectsUpdated int      `json:"projects_updated"`
	Errors          []string `json:"errors"`
}

// RunKind distinguishes the two pipeline entry points.
type RunKind string

const (
	RunKindIngest   RunKind = "ingest"
	RunKindDiscover RunKind = "discover"
)

// RunStatus is the persisted status of a run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the persisted record of one pipeline run.
type Run struct {
	ID         string           `json:"id"`
	Kind       RunKind          `json:"kind"`
	Status     RunStatus        `json:"status"`
	Results    []ScrapingResult `json:"results"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

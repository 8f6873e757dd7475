package model

// ProgressStage is the coarse state of a pipeline run.
type ProgressStage string

const (
	ProgressIdle       ProgressStage = "idle"
	ProgressCollecting ProgressStage = "collecting"
	ProgressProcessing ProgressStage = "processing"
	ProgressCompleted  ProgressStage = "completed"
	ProgressError      ProgressStage = "error"
)

// EventKind identifies what a progress event describes.
type EventKind string

const (
	EventRunStarted        EventKind = "run_started"
	EventSourceFetching    EventKind = "source_fetching"
	EventSourceFetched     EventKind = "source_fetched"
	EventSourceFailed      EventKind = "source_failed"
	EventSearchBatch       EventKind = "search_batch"
	EventProcessingStarted EventKind = "processing_started"
	EventDocumentStarted   EventKind = "document_started"
	EventDocumentProcessed EventKind = "document_processed"
	EventCandidateAccepted EventKind = "candidate_accepted"
	EventNoDocuments       EventKind = "no_documents"
	EventRunCompleted      EventKind = "run_completed"
	EventRunFailed         EventKind = "run_failed"
)

// Event is a structured progress event. Only the fields relevant to Kind are
// set; the human-readable message is rendered from it by the reporter.
type Event struct {
	Kind      EventKind `json:"kind"`
	Source    string    `json:"source,omitempty"`
	Title     string    `json:"title,omitempty"`
	Queries   []string  `json:"queries,omitempty"`
	Commodity Commodity `json:"commodity,omitempty"`
	Stage     Stage     `json:"stage,omitempty"`
	Project   string    `json:"project,omitempty"`
	Documents int       `json:"documents,omitempty"`
	Projects  int       `json:"projects,omitempty"`
	Action    string    `json:"action,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// ProgressState is the latest observable snapshot of a run.
type ProgressState struct {
	Stage       ProgressStage `json:"stage"`
	Message     string        `json:"message"`
	CurrentStep int           `json:"current_step"`
	TotalSteps  int           `json:"total_steps"`
	Details     *Event        `json:"details,omitempty"`
}

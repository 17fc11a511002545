package spandoc

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of an extraction run.
type RunStatus string

// Run lifecycle: created pending, processing while chunks are dispatched,
// completed after the merge finishes, error on invoker failure or timeout.
const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunError      RunStatus = "error"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunError
}

// ExtractionRun represents one extraction invocation over a document with a
// fixed prompt configuration. A run's entity set is all-or-nothing: a run
// either completes with its full merged set (possibly empty) or fails with
// a reported reason and no persisted entities.
type ExtractionRun struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"documentId"`
	Status       RunStatus `json:"status"`
	Provider     string    `json:"provider"`
	Prompt       Prompt    `json:"prompt"`
	ErrorMessage string    `json:"errorMessage,omitempty"`

	// Diagnostics recorded on completion.
	EntitiesCount  int           `json:"entitiesCount"`
	RejectedCount  int           `json:"rejectedCount"`
	ChunkCount     int           `json:"chunkCount"`
	DocumentLength int           `json:"documentLength"`
	TokenCount     int           `json:"tokenCount,omitempty"`
	ProcessingTime time.Duration `json:"processingTime"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *ExtractionRun) Validate() error {
	if r.DocumentID == "" {
		return Errorf(EINVALID, "run document ID required")
	}
	if err := r.Prompt.Validate(); err != nil {
		return err
	}
	return nil
}

// RunService represents a service for managing extraction runs.
type RunService interface {
	// CreateRun stores a new run in pending state. At most one non-terminal
	// run may exist per document; returns ECONFLICT if one already does.
	CreateRun(ctx context.Context, run *ExtractionRun) error

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if the run does not exist.
	FindRunByID(ctx context.Context, id string) (*ExtractionRun, error)

	// FindRuns retrieves runs matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*ExtractionRun, error)

	// UpdateRun persists status transitions and diagnostics.
	UpdateRun(ctx context.Context, run *ExtractionRun) error
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	ID         *string    `json:"id"`
	DocumentID *string    `json:"documentId"`
	Status     *RunStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RejectionService records candidates the aligner could not place, so
// alignment quality can be debugged independently of persisted entities.
type RejectionService interface {
	// CreateRejections stores a run's rejections in one batch.
	CreateRejections(ctx context.Context, runID string, rejections []Rejection) error

	// FindRejectionsByRun retrieves the rejections recorded for a run.
	FindRejectionsByRun(ctx context.Context, runID string) ([]Rejection, error)
}

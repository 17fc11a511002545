package spandoc

import (
	"context"
	"time"
)

// Entity is a grounded span persisted against one document version. Start
// and End are canonical-text byte offsets (half-open). When Alignment is
// exact, CanonicalText[Start:End] equals Text; for fuzzy and partial
// alignments the slice is the best located match, not necessarily
// character-identical to Text. Valid flips to false when the owning
// document's fingerprint changes; invalid entities remain visible but
// flagged until the document is re-processed.
type Entity struct {
	ID         string            `json:"id"`
	RunID      string            `json:"runId"`
	DocumentID string            `json:"documentId"`
	Class      string            `json:"class"`
	Text       string            `json:"text"`
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Alignment  AlignmentStatus   `json:"alignment"`
	Confidence float64           `json:"confidence"`
	Valid      bool              `json:"valid"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Validate returns an error if the entity contains invalid fields.
func (e *Entity) Validate() error {
	if e.RunID == "" {
		return Errorf(EINVALID, "entity run ID required")
	}
	if e.DocumentID == "" {
		return Errorf(EINVALID, "entity document ID required")
	}
	if e.Class == "" {
		return Errorf(EINVALID, "entity class label required")
	}
	if e.Text == "" {
		return Errorf(EINVALID, "entity text required")
	}
	if e.Start < 0 || e.End < e.Start {
		return Errorf(EINVALID, "entity offsets [%d, %d) out of order", e.Start, e.End)
	}
	if e.Alignment.Rank() == 0 {
		return Errorf(EINVALID, "entity alignment status %q unknown", e.Alignment)
	}
	return nil
}

// EntityService represents a service for managing grounded entities.
type EntityService interface {
	// CreateEntities persists a run's entity set in a single batch. The
	// batch is all-or-nothing: either every entity is stored or none is.
	CreateEntities(ctx context.Context, entities []*Entity) error

	// FindEntityByID retrieves an entity by ID.
	// Returns ENOTFOUND if the entity does not exist.
	FindEntityByID(ctx context.Context, id string) (*Entity, error)

	// FindEntities retrieves entities matching the filter, ordered by
	// start offset.
	FindEntities(ctx context.Context, filter EntityFilter) ([]*Entity, error)

	// InvalidateByDocument flags every entity of a document invalid and
	// returns the number of entities affected.
	InvalidateByDocument(ctx context.Context, documentID string) (int, error)
}

// EntityFilter represents a filter for FindEntities.
type EntityFilter struct {
	ID         *string `json:"id"`
	RunID      *string `json:"runId"`
	DocumentID *string `json:"documentId"`
	Class      *string `json:"class"`
	Valid      *bool   `json:"valid"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

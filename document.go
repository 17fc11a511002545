package spandoc

import (
	"context"
	"time"
)

// Document represents one immutable version of an ingested source document.
// CanonicalText is the single coordinate space for all entity offsets; it
// never changes once fingerprinted. Re-importing changed content creates a
// new Document whose ParentID points at the prior version, forming a
// forward-only version chain.
type Document struct {
	ID            string    `json:"id"`
	ParentID      *string   `json:"parentId,omitempty"`
	SourceURL     string    `json:"sourceUrl"`
	Title         string    `json:"title"`
	CanonicalText string    `json:"canonicalText"`
	Fingerprint   string    `json:"fingerprint"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.CanonicalText == "" {
		return Errorf(EINVALID, "document canonical text required")
	}
	return nil
}

// DocumentService represents a service for managing documents.
type DocumentService interface {
	// CreateDocument canonicalizes the text, fingerprints it, and stores a
	// new document version.
	CreateDocument(ctx context.Context, doc *Document) error

	// FindDocumentByID retrieves a document by ID.
	// Returns ENOTFOUND if the document does not exist.
	FindDocumentByID(ctx context.Context, id string) (*Document, error)

	// FindDocuments retrieves documents matching the filter.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// Reimport recomputes the fingerprint of raw source text against the
	// stored document. If unchanged it returns the stored document. If the
	// fingerprint differs it creates a new version with ParentID set to id,
	// flags every entity of the old version invalid, and returns the new
	// version.
	Reimport(ctx context.Context, id string, rawText string) (*Document, error)

	// DeleteDocument permanently removes a document, its runs, and its
	// entities. Returns ENOTFOUND if the document does not exist.
	DeleteDocument(ctx context.Context, id string) error
}

// DocumentFilter represents a filter for FindDocuments.
type DocumentFilter struct {
	ID          *string `json:"id"`
	ParentID    *string `json:"parentId"`
	Fingerprint *string `json:"fingerprint"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

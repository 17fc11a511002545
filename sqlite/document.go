package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ spandoc.DocumentService = (*DocumentService)(nil)

// DocumentService implements spandoc.DocumentService using SQLite.
type DocumentService struct {
	db *DB
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB) *DocumentService {
	return &DocumentService{db: db}
}

// CreateDocument canonicalizes the text, fingerprints it, and stores a new
// document version.
func (s *DocumentService) CreateDocument(ctx context.Context, doc *spandoc.Document) error {
	doc.CanonicalText = spandoc.Canonicalize(doc.CanonicalText)
	if err := doc.Validate(); err != nil {
		return err
	}

	doc.ID = uuid.New().String()
	doc.Fingerprint = spandoc.FingerprintText(doc.CanonicalText)
	doc.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, parent_id, source_url, title, canonical_text, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.ParentID, doc.SourceURL, doc.Title, doc.CanonicalText, doc.Fingerprint,
		doc.CreatedAt.Format(time.RFC3339))

	return err
}

// FindDocumentByID retrieves a document by ID.
func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*spandoc.Document, error) {
	var doc spandoc.Document
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, parent_id, source_url, title, canonical_text, fingerprint, created_at
		FROM documents
		WHERE id = ?
	`, id).Scan(&doc.ID, &doc.ParentID, &doc.SourceURL, &doc.Title, &doc.CanonicalText,
		&doc.Fingerprint, &createdAt)

	if err == sql.ErrNoRows {
		return nil, spandoc.Errorf(spandoc.ENOTFOUND, "document not found")
	}
	if err != nil {
		return nil, err
	}

	doc.CreatedAt, err = parseRFC3339(createdAt, "created_at")
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// FindDocuments retrieves documents matching the filter, newest first.
func (s *DocumentService) FindDocuments(ctx context.Context, filter spandoc.DocumentFilter) ([]*spandoc.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, parent_id, source_url, title, canonical_text, fingerprint, created_at FROM documents WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.ParentID != nil {
		query.WriteString(" AND parent_id = ?")
		args = append(args, *filter.ParentID)
	}
	if filter.Fingerprint != nil {
		query.WriteString(" AND fingerprint = ?")
		args = append(args, *filter.Fingerprint)
	}

	query.WriteString(" ORDER BY created_at DESC, id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*spandoc.Document
	for rows.Next() {
		var doc spandoc.Document
		var createdAt string
		if err := rows.Scan(&doc.ID, &doc.ParentID, &doc.SourceURL, &doc.Title,
			&doc.CanonicalText, &doc.Fingerprint, &createdAt); err != nil {
			return nil, err
		}
		doc.CreatedAt, err = parseRFC3339(createdAt, "created_at")
		if err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// Reimport recomputes the fingerprint of raw source text against the
// stored document. Unchanged content returns the stored document. Changed
// content creates a new version with ParentID set to id and flags every
// entity of the old version invalid; the old document's offsets are never
// mutated in place.
func (s *DocumentService) Reimport(ctx context.Context, id string, rawText string) (*spandoc.Document, error) {
	old, err := s.FindDocumentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	canonical := spandoc.Canonicalize(rawText)
	fingerprint := spandoc.FingerprintText(canonical)
	if fingerprint == old.Fingerprint {
		return old, nil
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	next := &spandoc.Document{
		ID:            uuid.New().String(),
		ParentID:      &old.ID,
		SourceURL:     old.SourceURL,
		Title:         old.Title,
		CanonicalText: canonical,
		Fingerprint:   fingerprint,
		CreatedAt:     time.Now().UTC(),
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, parent_id, source_url, title, canonical_text, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, next.ID, next.ParentID, next.SourceURL, next.Title, next.CanonicalText, next.Fingerprint,
		next.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE entities SET valid = 0 WHERE document_id = ?
	`, old.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return next, nil
}

// DeleteDocument permanently removes a document, its runs, and its
// entities.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	// Detach any child versions first; the version chain is informational
	// and must not block deletion.
	if _, err := s.db.ExecContext(ctx, `UPDATE documents SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return spandoc.Errorf(spandoc.ENOTFOUND, "document not found")
	}

	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ spandoc.RunService = (*RunService)(nil)

// RunService implements spandoc.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun stores a new run in pending state. At most one non-terminal
// run may exist per document.
func (s *RunService) CreateRun(ctx context.Context, run *spandoc.ExtractionRun) error {
	if err := run.Validate(); err != nil {
		return err
	}

	// The database is limited to a single connection, so the existence
	// check and the insert cannot interleave with another writer.
	var active int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM runs WHERE document_id = ? AND status IN (?, ?)
	`, run.DocumentID, spandoc.RunPending, spandoc.RunProcessing).Scan(&active)
	if err != nil {
		return err
	}
	if active > 0 {
		return spandoc.Errorf(spandoc.ECONFLICT, "document %q already has an active extraction run", run.DocumentID)
	}

	prompt, err := json.Marshal(run.Prompt)
	if err != nil {
		return err
	}

	run.ID = uuid.New().String()
	run.Status = spandoc.RunPending
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, document_id, status, provider, prompt, error_message,
			entities_count, rejected_count, chunk_count, document_length, token_count,
			processing_time_ns, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.DocumentID, run.Status, run.Provider, string(prompt), run.ErrorMessage,
		run.EntitiesCount, run.RejectedCount, run.ChunkCount, run.DocumentLength, run.TokenCount,
		run.ProcessingTime.Nanoseconds(), run.CreatedAt.Format(time.RFC3339), run.UpdatedAt.Format(time.RFC3339))

	return err
}

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*spandoc.ExtractionRun, error) {
	runs, err := s.FindRuns(ctx, spandoc.RunFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, spandoc.Errorf(spandoc.ENOTFOUND, "run not found")
	}
	return runs[0], nil
}

// FindRuns retrieves runs matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter spandoc.RunFilter) ([]*spandoc.ExtractionRun, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, document_id, status, provider, prompt, error_message,
		entities_count, rejected_count, chunk_count, document_length, token_count,
		processing_time_ns, created_at, updated_at FROM runs WHERE 1=1`)

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.DocumentID != nil {
		query.WriteString(" AND document_id = ?")
		args = append(args, *filter.DocumentID)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, *filter.Status)
	}

	query.WriteString(" ORDER BY created_at DESC, id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*spandoc.ExtractionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// UpdateRun persists status transitions and diagnostics.
func (s *RunService) UpdateRun(ctx context.Context, run *spandoc.ExtractionRun) error {
	run.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error_message = ?, entities_count = ?, rejected_count = ?,
			chunk_count = ?, document_length = ?, token_count = ?, processing_time_ns = ?, updated_at = ?
		WHERE id = ?
	`, run.Status, run.ErrorMessage, run.EntitiesCount, run.RejectedCount,
		run.ChunkCount, run.DocumentLength, run.TokenCount, run.ProcessingTime.Nanoseconds(),
		run.UpdatedAt.Format(time.RFC3339), run.ID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return spandoc.Errorf(spandoc.ENOTFOUND, "run not found")
	}

	return nil
}

// scanRun scans one runs row.
func scanRun(rows *sql.Rows) (*spandoc.ExtractionRun, error) {
	var run spandoc.ExtractionRun
	var prompt, createdAt, updatedAt string
	var processingNS int64

	if err := rows.Scan(&run.ID, &run.DocumentID, &run.Status, &run.Provider, &prompt,
		&run.ErrorMessage, &run.EntitiesCount, &run.RejectedCount, &run.ChunkCount,
		&run.DocumentLength, &run.TokenCount, &processingNS, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(prompt), &run.Prompt); err != nil {
		return nil, err
	}
	run.ProcessingTime = time.Duration(processingNS)

	var err error
	if run.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if run.UpdatedAt, err = parseRFC3339(updatedAt, "updated_at"); err != nil {
		return nil, err
	}

	return &run, nil
}

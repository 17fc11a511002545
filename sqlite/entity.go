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
var _ spandoc.EntityService = (*EntityService)(nil)

// EntityService implements spandoc.EntityService using SQLite.
type EntityService struct {
	db *DB
}

// NewEntityService creates a new EntityService.
func NewEntityService(db *DB) *EntityService {
	return &EntityService{db: db}
}

// CreateEntities persists a run's entity set in a single transaction so
// the batch is all-or-nothing.
func (s *EntityService) CreateEntities(ctx context.Context, entities []*spandoc.Entity) error {
	for _, e := range entities {
		if err := e.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, e := range entities {
		e.ID = uuid.New().String()
		e.CreatedAt = now

		attrs, err := json.Marshal(attributesOrEmpty(e.Attributes))
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (id, run_id, document_id, class, text, start_offset, end_offset,
				attributes, alignment, confidence, valid, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.RunID, e.DocumentID, e.Class, e.Text, e.Start, e.End,
			string(attrs), e.Alignment, e.Confidence, boolToInt(e.Valid), e.CreatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindEntityByID retrieves an entity by ID.
func (s *EntityService) FindEntityByID(ctx context.Context, id string) (*spandoc.Entity, error) {
	entities, err := s.FindEntities(ctx, spandoc.EntityFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, spandoc.Errorf(spandoc.ENOTFOUND, "entity not found")
	}
	return entities[0], nil
}

// FindEntities retrieves entities matching the filter, ordered by start
// offset.
func (s *EntityService) FindEntities(ctx context.Context, filter spandoc.EntityFilter) ([]*spandoc.Entity, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, run_id, document_id, class, text, start_offset, end_offset,
		attributes, alignment, confidence, valid, created_at FROM entities WHERE 1=1`)

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.RunID != nil {
		query.WriteString(" AND run_id = ?")
		args = append(args, *filter.RunID)
	}
	if filter.DocumentID != nil {
		query.WriteString(" AND document_id = ?")
		args = append(args, *filter.DocumentID)
	}
	if filter.Class != nil {
		query.WriteString(" AND class = ?")
		args = append(args, *filter.Class)
	}
	if filter.Valid != nil {
		query.WriteString(" AND valid = ?")
		args = append(args, boolToInt(*filter.Valid))
	}

	query.WriteString(" ORDER BY start_offset, end_offset, id")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entities []*spandoc.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}

	return entities, rows.Err()
}

// InvalidateByDocument flags every entity of a document invalid.
func (s *EntityService) InvalidateByDocument(ctx context.Context, documentID string) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE entities SET valid = 0 WHERE document_id = ? AND valid = 1
	`, documentID)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// scanEntity scans one entities row.
func scanEntity(rows *sql.Rows) (*spandoc.Entity, error) {
	var e spandoc.Entity
	var attrs, createdAt string
	var valid int

	if err := rows.Scan(&e.ID, &e.RunID, &e.DocumentID, &e.Class, &e.Text, &e.Start, &e.End,
		&attrs, &e.Alignment, &e.Confidence, &valid, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(attrs), &e.Attributes); err != nil {
		return nil, err
	}
	if len(e.Attributes) == 0 {
		e.Attributes = nil
	}
	e.Valid = valid != 0

	var err error
	if e.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}

	return &e, nil
}

func attributesOrEmpty(attrs map[string]string) map[string]string {
	if attrs == nil {
		return map[string]string{}
	}
	return attrs
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

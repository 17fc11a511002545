package sqlite

import (
	"context"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ spandoc.RejectionService = (*RejectionService)(nil)

// RejectionService implements spandoc.RejectionService using SQLite. It
// keeps the aligner's below-floor candidates so extraction quality can be
// debugged independently of the persisted entity set.
type RejectionService struct {
	db *DB
}

// NewRejectionService creates a new RejectionService.
func NewRejectionService(db *DB) *RejectionService {
	return &RejectionService{db: db}
}

// CreateRejections stores a run's rejections in one transaction.
func (s *RejectionService) CreateRejections(ctx context.Context, runID string, rejections []spandoc.Rejection) error {
	if runID == "" {
		return spandoc.Errorf(spandoc.EINVALID, "run ID required")
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rejections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rejections (id, run_id, class, text, best_score, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), runID, r.Class, r.Text, r.BestScore, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindRejectionsByRun retrieves the rejections recorded for a run.
func (s *RejectionService) FindRejectionsByRun(ctx context.Context, runID string) ([]spandoc.Rejection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT class, text, best_score FROM rejections WHERE run_id = ? ORDER BY best_score DESC, text
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rejections []spandoc.Rejection
	for rows.Next() {
		var r spandoc.Rejection
		if err := rows.Scan(&r.Class, &r.Text, &r.BestScore); err != nil {
			return nil, err
		}
		rejections = append(rejections, r)
	}

	return rejections, rows.Err()
}

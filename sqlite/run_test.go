package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/spandoc"
	"github.com/fwojciec/spandoc/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunService_CreateRun(t *testing.T) {
	t.Parallel()

	t.Run("creates run in pending state", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		svc := sqlite.NewRunService(db)

		run := &spandoc.ExtractionRun{
			DocumentID: doc.ID,
			Provider:   "gemini",
			Prompt:     spandoc.Prompt{Instruction: "extract factual claims"},
		}
		require.NoError(t, svc.CreateRun(context.Background(), run))

		assert.NotEmpty(t, run.ID)
		assert.Equal(t, spandoc.RunPending, run.Status)
		assert.False(t, run.CreatedAt.IsZero())
	})

	t.Run("returns ECONFLICT while an active run exists", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		createTestRun(t, db, doc.ID)
		svc := sqlite.NewRunService(db)

		err := svc.CreateRun(context.Background(), &spandoc.ExtractionRun{
			DocumentID: doc.ID,
			Provider:   "gemini",
			Prompt:     spandoc.Prompt{Instruction: "extract claims"},
		})
		require.Error(t, err)
		assert.Equal(t, spandoc.ECONFLICT, spandoc.ErrorCode(err))
	})

	t.Run("allows a new run after the previous one is terminal", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		run := createTestRun(t, db, doc.ID)
		svc := sqlite.NewRunService(db)
		ctx := context.Background()

		run.Status = spandoc.RunCompleted
		require.NoError(t, svc.UpdateRun(ctx, run))

		err := svc.CreateRun(ctx, &spandoc.ExtractionRun{
			DocumentID: doc.ID,
			Provider:   "gemini",
			Prompt:     spandoc.Prompt{Instruction: "extract claims"},
		})
		require.NoError(t, err)
	})

	t.Run("returns EINVALID for missing prompt instruction", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		svc := sqlite.NewRunService(db)

		err := svc.CreateRun(context.Background(), &spandoc.ExtractionRun{
			DocumentID: doc.ID,
			Provider:   "gemini",
		})
		require.Error(t, err)
		assert.Equal(t, spandoc.EINVALID, spandoc.ErrorCode(err))
	})
}

func TestRunService_UpdateRun(t *testing.T) {
	t.Parallel()

	t.Run("persists status transition and stats", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		run := createTestRun(t, db, doc.ID)
		svc := sqlite.NewRunService(db)
		ctx := context.Background()

		run.Status = spandoc.RunCompleted
		run.EntitiesCount = 7
		run.RejectedCount = 2
		run.ChunkCount = 3
		run.DocumentLength = len(doc.CanonicalText)
		run.TokenCount = 1200
		run.ProcessingTime = 1500 * time.Millisecond
		require.NoError(t, svc.UpdateRun(ctx, run))

		found, err := svc.FindRunByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, spandoc.RunCompleted, found.Status)
		assert.Equal(t, 7, found.EntitiesCount)
		assert.Equal(t, 2, found.RejectedCount)
		assert.Equal(t, 3, found.ChunkCount)
		assert.Equal(t, 1200, found.TokenCount)
		assert.Equal(t, 1500*time.Millisecond, found.ProcessingTime)
	})

	t.Run("preserves the failure message", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		run := createTestRun(t, db, doc.ID)
		svc := sqlite.NewRunService(db)
		ctx := context.Background()

		run.Status = spandoc.RunError
		run.ErrorMessage = "provider unavailable"
		require.NoError(t, svc.UpdateRun(ctx, run))

		found, err := svc.FindRunByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, spandoc.RunError, found.Status)
		assert.Equal(t, "provider unavailable", found.ErrorMessage)
	})

	t.Run("returns ENOTFOUND for missing run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		svc := sqlite.NewRunService(db)

		err := svc.UpdateRun(context.Background(), &spandoc.ExtractionRun{ID: "missing"})
		require.Error(t, err)
		assert.Equal(t, spandoc.ENOTFOUND, spandoc.ErrorCode(err))
	})
}

func TestRunService_FindRuns(t *testing.T) {
	t.Parallel()

	t.Run("round-trips the prompt", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		svc := sqlite.NewRunService(db)
		ctx := context.Background()

		prompt := spandoc.Prompt{
			Instruction: "extract factual claims",
			Examples: []spandoc.Example{{
				Text: "Solar is cheap.",
				Candidates: []spandoc.Candidate{{
					Class:      "claim",
					Text:       "Solar is cheap.",
					Attributes: map[string]string{"topic": "energy"},
				}},
			}},
		}
		run := &spandoc.ExtractionRun{DocumentID: doc.ID, Provider: "gemini", Prompt: prompt}
		require.NoError(t, svc.CreateRun(ctx, run))

		found, err := svc.FindRunByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, prompt, found.Prompt)
	})

	t.Run("filters by document and status", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		docA := createTestDocument(t, db, "first document text")
		docB := createTestDocument(t, db, "second document text")
		runA := createTestRun(t, db, docA.ID)
		createTestRun(t, db, docB.ID)
		svc := sqlite.NewRunService(db)
		ctx := context.Background()

		byDoc, err := svc.FindRuns(ctx, spandoc.RunFilter{DocumentID: &docA.ID})
		require.NoError(t, err)
		require.Len(t, byDoc, 1)
		assert.Equal(t, runA.ID, byDoc[0].ID)

		pending := spandoc.RunPending
		byStatus, err := svc.FindRuns(ctx, spandoc.RunFilter{Status: &pending})
		require.NoError(t, err)
		assert.Len(t, byStatus, 2)
	})
}

func TestRejectionService(t *testing.T) {
	t.Parallel()

	t.Run("round-trips rejections ordered by score", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		run := createTestRun(t, db, doc.ID)
		svc := sqlite.NewRejectionService(db)
		ctx := context.Background()

		err := svc.CreateRejections(ctx, run.ID, []spandoc.Rejection{
			{Class: "claim", Text: "unrelated sentence", BestScore: 0.21},
			{Class: "claim", Text: "close but not close enough", BestScore: 0.47},
		})
		require.NoError(t, err)

		found, err := svc.FindRejectionsByRun(ctx, run.ID)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, "close but not close enough", found[0].Text)
		assert.InDelta(t, 0.47, found[0].BestScore, 1e-9)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		doc := createTestDocument(t, db, "document text for extraction")
		run := createTestRun(t, db, doc.ID)
		svc := sqlite.NewRejectionService(db)
		ctx := context.Background()

		require.NoError(t, svc.CreateRejections(ctx, run.ID, nil))

		found, err := svc.FindRejectionsByRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

package mock

import (
	"context"

	"github.com/fwojciec/spandoc"
)

var _ spandoc.RunService = (*RunService)(nil)

// RunService is a mock implementation of spandoc.RunService.
type RunService struct {
	CreateRunFn   func(ctx context.Context, run *spandoc.ExtractionRun) error
	FindRunByIDFn func(ctx context.Context, id string) (*spandoc.ExtractionRun, error)
	FindRunsFn    func(ctx context.Context, filter spandoc.RunFilter) ([]*spandoc.ExtractionRun, error)
	UpdateRunFn   func(ctx context.Context, run *spandoc.ExtractionRun) error
}

func (s *RunService) CreateRun(ctx context.Context, run *spandoc.ExtractionRun) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FindRunByID(ctx context.Context, id string) (*spandoc.ExtractionRun, error) {
	return s.FindRunByIDFn(ctx, id)
}

func (s *RunService) FindRuns(ctx context.Context, filter spandoc.RunFilter) ([]*spandoc.ExtractionRun, error) {
	return s.FindRunsFn(ctx, filter)
}

func (s *RunService) UpdateRun(ctx context.Context, run *spandoc.ExtractionRun) error {
	return s.UpdateRunFn(ctx, run)
}

var _ spandoc.RejectionService = (*RejectionService)(nil)

// RejectionService is a mock implementation of spandoc.RejectionService.
type RejectionService struct {
	CreateRejectionsFn    func(ctx context.Context, runID string, rejections []spandoc.Rejection) error
	FindRejectionsByRunFn func(ctx context.Context, runID string) ([]spandoc.Rejection, error)
}

func (s *RejectionService) CreateRejections(ctx context.Context, runID string, rejections []spandoc.Rejection) error {
	return s.CreateRejectionsFn(ctx, runID, rejections)
}

func (s *RejectionService) FindRejectionsByRun(ctx context.Context, runID string) ([]spandoc.Rejection, error) {
	return s.FindRejectionsByRunFn(ctx, runID)
}

package mock

import (
	"context"

	"github.com/fwojciec/spandoc"
)

var _ spandoc.EntityService = (*EntityService)(nil)

// EntityService is a mock implementation of spandoc.EntityService.
type EntityService struct {
	CreateEntitiesFn       func(ctx context.Context, entities []*spandoc.Entity) error
	FindEntityByIDFn       func(ctx context.Context, id string) (*spandoc.Entity, error)
	FindEntitiesFn         func(ctx context.Context, filter spandoc.EntityFilter) ([]*spandoc.Entity, error)
	InvalidateByDocumentFn func(ctx context.Context, documentID string) (int, error)
}

func (s *EntityService) CreateEntities(ctx context.Context, entities []*spandoc.Entity) error {
	return s.CreateEntitiesFn(ctx, entities)
}

func (s *EntityService) FindEntityByID(ctx context.Context, id string) (*spandoc.Entity, error) {
	return s.FindEntityByIDFn(ctx, id)
}

func (s *EntityService) FindEntities(ctx context.Context, filter spandoc.EntityFilter) ([]*spandoc.Entity, error) {
	return s.FindEntitiesFn(ctx, filter)
}

func (s *EntityService) InvalidateByDocument(ctx context.Context, documentID string) (int, error) {
	return s.InvalidateByDocumentFn(ctx, documentID)
}

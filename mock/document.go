package mock

import (
	"context"

	"github.com/fwojciec/spandoc"
)

var _ spandoc.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of spandoc.DocumentService.
type DocumentService struct {
	CreateDocumentFn   func(ctx context.Context, doc *spandoc.Document) error
	FindDocumentByIDFn func(ctx context.Context, id string) (*spandoc.Document, error)
	FindDocumentsFn    func(ctx context.Context, filter spandoc.DocumentFilter) ([]*spandoc.Document, error)
	ReimportFn         func(ctx context.Context, id string, rawText string) (*spandoc.Document, error)
	DeleteDocumentFn   func(ctx context.Context, id string) error
}

func (s *DocumentService) CreateDocument(ctx context.Context, doc *spandoc.Document) error {
	return s.CreateDocumentFn(ctx, doc)
}

func (s *DocumentService) FindDocumentByID(ctx context.Context, id string) (*spandoc.Document, error) {
	return s.FindDocumentByIDFn(ctx, id)
}

func (s *DocumentService) FindDocuments(ctx context.Context, filter spandoc.DocumentFilter) ([]*spandoc.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentService) Reimport(ctx context.Context, id string, rawText string) (*spandoc.Document, error) {
	return s.ReimportFn(ctx, id, rawText)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}

package contract

import (
	"context"

	"ai-docview-be/internal/entity"
	"ai-docview-be/pkg/view"
)

// Lookups return nil, nil when nothing matches.

type DocumentProfileRepository interface {
	Save(ctx context.Context, profile *entity.DocumentProfile) error // upsert by document id
	FindByDocumentId(ctx context.Context, documentId string) (*entity.DocumentProfile, error)
	Delete(ctx context.Context, documentId string) (bool, error)
}

type IntermediateResultRepository interface {
	Save(ctx context.Context, result *entity.IntermediateResult) error // upsert by document id
	FindByDocumentId(ctx context.Context, documentId string) (*entity.IntermediateResult, error)
	Exists(ctx context.Context, documentId string) (bool, error)
	Delete(ctx context.Context, documentId string) (bool, error)
}

// ViewResultRepository scopes every write to a single (document, view) row.
type ViewResultRepository interface {
	Upsert(ctx context.Context, result *entity.ViewResult) error
	FindOne(ctx context.Context, documentId string, kind view.Kind) (*entity.ViewResult, error)
	FindAllByDocumentId(ctx context.Context, documentId string) ([]*entity.ViewResult, error)
	DeleteByDocumentId(ctx context.Context, documentId string) (int64, error)
}

package unitofwork

import (
	"context"

	"ai-docview-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentProfileRepository() contract.DocumentProfileRepository
	IntermediateResultRepository() contract.IntermediateResultRepository
	ViewResultRepository() contract.ViewResultRepository
}

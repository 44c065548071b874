package memory

import (
	"context"
	"time"

	"ai-docview-be/internal/entity"
	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
)

type DocumentProfileRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *DocumentProfileRepository) Save(ctx context.Context, profile *entity.DocumentProfile) error {
	r.store.mu.RLock()
	prev := r.store.profiles[profile.DocumentId]
	r.store.mu.RUnlock()

	prevId, prevCreated := uuid.Nil, time.Time{}
	if prev != nil {
		prevId, prevCreated = prev.Id, prev.CreatedAt
	}
	stamp(&profile.Id, &profile.CreatedAt, &profile.UpdatedAt, prevId, prevCreated)

	row := copyProfile(profile)
	r.uow.apply(func() { r.store.profiles[row.DocumentId] = row })
	return nil
}

func (r *DocumentProfileRepository) FindByDocumentId(ctx context.Context, documentId string) (*entity.DocumentProfile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return copyProfile(r.store.profiles[documentId]), nil
}

func (r *DocumentProfileRepository) Delete(ctx context.Context, documentId string) (bool, error) {
	r.store.mu.RLock()
	_, ok := r.store.profiles[documentId]
	r.store.mu.RUnlock()
	if !ok {
		return false, nil
	}

	r.uow.apply(func() { delete(r.store.profiles, documentId) })
	return true, nil
}

type IntermediateResultRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *IntermediateResultRepository) Save(ctx context.Context, result *entity.IntermediateResult) error {
	r.store.mu.RLock()
	prev := r.store.intermediates[result.DocumentId]
	r.store.mu.RUnlock()

	prevId, prevCreated := uuid.Nil, time.Time{}
	if prev != nil {
		prevId, prevCreated = prev.Id, prev.CreatedAt
	}
	stamp(&result.Id, &result.CreatedAt, &result.UpdatedAt, prevId, prevCreated)

	row := copyIntermediate(result)
	r.uow.apply(func() { r.store.intermediates[row.DocumentId] = row })
	return nil
}

func (r *IntermediateResultRepository) FindByDocumentId(ctx context.Context, documentId string) (*entity.IntermediateResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return copyIntermediate(r.store.intermediates[documentId]), nil
}

func (r *IntermediateResultRepository) Exists(ctx context.Context, documentId string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.intermediates[documentId]
	return ok, nil
}

func (r *IntermediateResultRepository) Delete(ctx context.Context, documentId string) (bool, error) {
	r.store.mu.RLock()
	_, ok := r.store.intermediates[documentId]
	r.store.mu.RUnlock()
	if !ok {
		return false, nil
	}

	r.uow.apply(func() { delete(r.store.intermediates, documentId) })
	return true, nil
}

type ViewResultRepository struct {
	store *Store
	uow   *UnitOfWork
}

func (r *ViewResultRepository) Upsert(ctx context.Context, result *entity.ViewResult) error {
	if hook := r.store.OnViewUpsert; hook != nil {
		if err := hook(result); err != nil {
			return err
		}
	}

	r.store.mu.RLock()
	prev := r.store.views[result.DocumentId][result.View]
	r.store.mu.RUnlock()

	prevId, prevCreated := uuid.Nil, time.Time{}
	if prev != nil {
		prevId, prevCreated = prev.Id, prev.CreatedAt
	}
	stamp(&result.Id, &result.CreatedAt, &result.UpdatedAt, prevId, prevCreated)

	row := copyViewResult(result)
	r.uow.apply(func() {
		rows, ok := r.store.views[row.DocumentId]
		if !ok {
			rows = make(map[view.Kind]*entity.ViewResult)
			r.store.views[row.DocumentId] = rows
		}
		rows[row.View] = row
	})
	return nil
}

func (r *ViewResultRepository) FindOne(ctx context.Context, documentId string, kind view.Kind) (*entity.ViewResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return copyViewResult(r.store.views[documentId][kind]), nil
}

// FindAllByDocumentId returns rows oldest first, like the gorm implementation.
func (r *ViewResultRepository) FindAllByDocumentId(ctx context.Context, documentId string) ([]*entity.ViewResult, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := r.store.views[documentId]
	out := make([]*entity.ViewResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, copyViewResult(row))
	}
	sortByCreated(out)
	return out, nil
}

func (r *ViewResultRepository) DeleteByDocumentId(ctx context.Context, documentId string) (int64, error) {
	r.store.mu.RLock()
	n := len(r.store.views[documentId])
	r.store.mu.RUnlock()
	if n == 0 {
		return 0, nil
	}

	r.uow.apply(func() { delete(r.store.views, documentId) })
	return int64(n), nil
}

package implementation

import (
	"context"
	"errors"

	"ai-docview-be/internal/entity"
	"ai-docview-be/internal/mapper"
	"ai-docview-be/internal/model"
	"ai-docview-be/internal/repository/contract"
	"ai-docview-be/internal/repository/specification"
	"ai-docview-be/pkg/view"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ViewResultRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewViewResultRepository(db *gorm.DB) contract.ViewResultRepository {
	return &ViewResultRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Upsert touches only the (document_id, view) row of result.
func (r *ViewResultRepositoryImpl) Upsert(ctx context.Context, result *entity.ViewResult) error {
	m := r.mapper.ViewResultToModel(result)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "view"}},
			DoUpdates: clause.AssignmentColumns([]string{"type_alias", "result_data", "is_primary", "processing_time_ms", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*result = *r.mapper.ViewResultToEntity(m)
	return nil
}

func (r *ViewResultRepositoryImpl) FindOne(ctx context.Context, documentId string, kind view.Kind) (*entity.ViewResult, error) {
	var m model.ViewResult
	query := applySpecifications(r.db.WithContext(ctx),
		specification.ByDocumentID{DocumentID: documentId},
		specification.ByView{View: kind},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ViewResultToEntity(&m), nil
}

func (r *ViewResultRepositoryImpl) FindAllByDocumentId(ctx context.Context, documentId string) ([]*entity.ViewResult, error) {
	var models []*model.ViewResult
	query := applySpecifications(r.db.WithContext(ctx),
		specification.ByDocumentID{DocumentID: documentId},
		specification.OrderBy{Field: "created_at"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ViewResultsToEntities(models), nil
}

func (r *ViewResultRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId string) (int64, error) {
	query := applySpecifications(r.db.WithContext(ctx), specification.ByDocumentID{DocumentID: documentId})
	res := query.Delete(&model.ViewResult{})
	return res.RowsAffected, res.Error
}

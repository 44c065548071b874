package implementation

import (
	"context"
	"errors"

	"ai-docview-be/internal/entity"
	"ai-docview-be/internal/mapper"
	"ai-docview-be/internal/model"
	"ai-docview-be/internal/repository/contract"
	"ai-docview-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IntermediateResultRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewIntermediateResultRepository(db *gorm.DB) contract.IntermediateResultRepository {
	return &IntermediateResultRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *IntermediateResultRepositoryImpl) Save(ctx context.Context, result *entity.IntermediateResult) error {
	m := r.mapper.IntermediateToModel(result)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"raw_content", "preprocessed_content", "segments", "metadata", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*result = *r.mapper.IntermediateToEntity(m)
	return nil
}

func (r *IntermediateResultRepositoryImpl) FindByDocumentId(ctx context.Context, documentId string) (*entity.IntermediateResult, error) {
	var m model.IntermediateResult
	query := applySpecifications(r.db.WithContext(ctx), specification.ByDocumentID{DocumentID: documentId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.IntermediateToEntity(&m), nil
}

func (r *IntermediateResultRepositoryImpl) Exists(ctx context.Context, documentId string) (bool, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.IntermediateResult{}), specification.ByDocumentID{DocumentID: documentId})
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *IntermediateResultRepositoryImpl) Delete(ctx context.Context, documentId string) (bool, error) {
	query := applySpecifications(r.db.WithContext(ctx), specification.ByDocumentID{DocumentID: documentId})
	res := query.Delete(&model.IntermediateResult{})
	return res.RowsAffected > 0, res.Error
}

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

type DocumentProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentProfileRepository(db *gorm.DB) contract.DocumentProfileRepository {
	return &DocumentProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentProfileRepositoryImpl) Save(ctx context.Context, profile *entity.DocumentProfile) error {
	m := r.mapper.ProfileToModel(profile)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"primary_view", "enabled_views", "detection_scores", "cache_key", "method", "updated_at"}),
		}).
		Create(m).Error
	if err != nil {
		return err
	}
	*profile = *r.mapper.ProfileToEntity(m)
	return nil
}

func (r *DocumentProfileRepositoryImpl) FindByDocumentId(ctx context.Context, documentId string) (*entity.DocumentProfile, error) {
	var m model.DocumentProfile
	query := applySpecifications(r.db.WithContext(ctx), specification.ByDocumentID{DocumentID: documentId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ProfileToEntity(&m), nil
}

func (r *DocumentProfileRepositoryImpl) Delete(ctx context.Context, documentId string) (bool, error) {
	query := applySpecifications(r.db.WithContext(ctx), specification.ByDocumentID{DocumentID: documentId})
	res := query.Delete(&model.DocumentProfile{})
	return res.RowsAffected > 0, res.Error
}

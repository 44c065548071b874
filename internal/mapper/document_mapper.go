package mapper

import (
	"time"

	"ai-docview-be/internal/entity"
	"ai-docview-be/internal/model"
	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func updatedAtPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func updatedAtValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func ensureId(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func (m *DocumentMapper) ProfileToEntity(p *model.DocumentProfile) *entity.DocumentProfile {
	if p == nil {
		return nil
	}

	enabled := make([]view.Kind, 0, len(p.EnabledViews.Data()))
	for _, v := range p.EnabledViews.Data() {
		enabled = append(enabled, view.Kind(v))
	}
	scores := make(map[view.Kind]float64, len(p.DetectionScores.Data()))
	for k, v := range p.DetectionScores.Data() {
		scores[view.Kind(k)] = v
	}

	return &entity.DocumentProfile{
		Id:              p.Id,
		DocumentId:      p.DocumentId,
		PrimaryView:     view.Kind(p.PrimaryView),
		EnabledViews:    enabled,
		DetectionScores: scores,
		CacheKey:        p.CacheKey,
		Method:          p.Method,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       updatedAtPtr(p.UpdatedAt),
	}
}

func (m *DocumentMapper) ProfileToModel(p *entity.DocumentProfile) *model.DocumentProfile {
	if p == nil {
		return nil
	}

	enabled := make([]string, len(p.EnabledViews))
	for i, v := range p.EnabledViews {
		enabled[i] = string(v)
	}
	scores := make(map[string]float64, len(p.DetectionScores))
	for k, v := range p.DetectionScores {
		scores[string(k)] = v
	}

	return &model.DocumentProfile{
		Id:              ensureId(p.Id),
		DocumentId:      p.DocumentId,
		PrimaryView:     string(p.PrimaryView),
		EnabledViews:    datatypes.NewJSONType(enabled),
		DetectionScores: datatypes.NewJSONType(scores),
		CacheKey:        p.CacheKey,
		Method:          p.Method,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       updatedAtValue(p.UpdatedAt),
	}
}

func (m *DocumentMapper) IntermediateToEntity(r *model.IntermediateResult) *entity.IntermediateResult {
	if r == nil {
		return nil
	}
	return &entity.IntermediateResult{
		Id:                  r.Id,
		DocumentId:          r.DocumentId,
		RawContent:          r.RawContent,
		PreprocessedContent: r.PreprocessedContent,
		Segments:            r.Segments.Data(),
		Metadata:            map[string]interface{}(r.Metadata),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           updatedAtPtr(r.UpdatedAt),
	}
}

func (m *DocumentMapper) IntermediateToModel(r *entity.IntermediateResult) *model.IntermediateResult {
	if r == nil {
		return nil
	}
	return &model.IntermediateResult{
		Id:                  ensureId(r.Id),
		DocumentId:          r.DocumentId,
		RawContent:          r.RawContent,
		PreprocessedContent: r.PreprocessedContent,
		Segments:            datatypes.NewJSONType(r.Segments),
		Metadata:            datatypes.JSONMap(r.Metadata),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           updatedAtValue(r.UpdatedAt),
	}
}

func (m *DocumentMapper) ViewResultToEntity(r *model.ViewResult) *entity.ViewResult {
	if r == nil {
		return nil
	}
	return &entity.ViewResult{
		Id:             r.Id,
		DocumentId:     r.DocumentId,
		View:           view.Kind(r.View),
		TypeAlias:      r.TypeAlias,
		ResultData:     view.ResultData(r.ResultData),
		IsPrimary:      r.IsPrimary,
		ProcessingTime: time.Duration(r.ProcessingTimeMs) * time.Millisecond,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      updatedAtPtr(r.UpdatedAt),
	}
}

func (m *DocumentMapper) ViewResultToModel(r *entity.ViewResult) *model.ViewResult {
	if r == nil {
		return nil
	}
	return &model.ViewResult{
		Id:               ensureId(r.Id),
		DocumentId:       r.DocumentId,
		View:             string(r.View),
		TypeAlias:        r.TypeAlias,
		ResultData:       datatypes.JSONMap(r.ResultData),
		IsPrimary:        r.IsPrimary,
		ProcessingTimeMs: r.ProcessingTime.Milliseconds(),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        updatedAtValue(r.UpdatedAt),
	}
}

func (m *DocumentMapper) ViewResultsToEntities(results []*model.ViewResult) []*entity.ViewResult {
	entities := make([]*entity.ViewResult, len(results))
	for i, r := range results {
		entities[i] = m.ViewResultToEntity(r)
	}
	return entities
}

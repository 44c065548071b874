package specification

import (
	"fmt"

	"ai-docview-be/pkg/view"

	"gorm.io/gorm"
)

// ByDocumentID filters by the external document id
type ByDocumentID struct {
	DocumentID string
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type ByView struct {
	View view.Kind
}

func (s ByView) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("view = ?", string(s.View))
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

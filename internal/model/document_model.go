package model

import (
	"time"

	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DocumentProfile struct {
	Id              uuid.UUID                              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId      string                                 `gorm:"type:varchar(128);not null;uniqueIndex"`
	PrimaryView     string                                 `gorm:"type:varchar(32);not null"`
	EnabledViews    datatypes.JSONType[[]string]           `gorm:"type:jsonb"`
	DetectionScores datatypes.JSONType[map[string]float64] `gorm:"type:jsonb"`
	CacheKey        string                                 `gorm:"type:varchar(80);index"`
	Method          string                                 `gorm:"type:varchar(16)"`
	CreatedAt       time.Time                              `gorm:"autoCreateTime"`
	UpdatedAt       time.Time                              `gorm:"autoUpdateTime"`
}

func (DocumentProfile) TableName() string {
	return "document_profiles"
}

type IntermediateResult struct {
	Id                  uuid.UUID                          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId          string                             `gorm:"type:varchar(128);not null;uniqueIndex"`
	RawContent          string                             `gorm:"type:text"`
	PreprocessedContent string                             `gorm:"type:text"`
	Segments            datatypes.JSONType[[]view.Segment] `gorm:"type:jsonb"`
	Metadata            datatypes.JSONMap                  `gorm:"type:jsonb"`
	CreatedAt           time.Time                          `gorm:"autoCreateTime"`
	UpdatedAt           time.Time                          `gorm:"autoUpdateTime"`
}

func (IntermediateResult) TableName() string {
	return "intermediate_results"
}

type ViewResult struct {
	Id               uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId       string            `gorm:"type:varchar(128);not null;uniqueIndex:idx_view_results_document_view"`
	View             string            `gorm:"type:varchar(32);not null;uniqueIndex:idx_view_results_document_view"`
	TypeAlias        string            `gorm:"type:varchar(64)"`
	ResultData       datatypes.JSONMap `gorm:"type:jsonb"`
	IsPrimary        bool              `gorm:"not null;default:false"`
	ProcessingTimeMs int64
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (ViewResult) TableName() string {
	return "view_results"
}

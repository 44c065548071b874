package entity

import (
	"time"

	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
)

// DocumentProfile records what detection decided about a document.
type DocumentProfile struct {
	Id              uuid.UUID
	DocumentId      string
	PrimaryView     view.Kind
	EnabledViews    []view.Kind
	DetectionScores map[view.Kind]float64
	CacheKey        string
	Method          string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

func (p *DocumentProfile) IsEnabled(kind view.Kind) bool {
	for _, k := range p.EnabledViews {
		if k == kind {
			return true
		}
	}
	return false
}

// IntermediateResult is the view-agnostic snapshot every processor reads from.
type IntermediateResult struct {
	Id                  uuid.UUID
	DocumentId          string
	RawContent          string
	PreprocessedContent string
	Segments            []view.Segment
	Metadata            map[string]interface{}
	CreatedAt           time.Time
	UpdatedAt           *time.Time
}

type ViewResult struct {
	Id             uuid.UUID
	DocumentId     string
	View           view.Kind
	TypeAlias      string
	ResultData     view.ResultData
	IsPrimary      bool
	ProcessingTime time.Duration
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

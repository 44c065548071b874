package dto

import (
	"time"
)

type IngestDocumentRequest struct {
	DocumentId  string `json:"document_id" validate:"omitempty,max=128"`
	Filename    string `json:"filename" validate:"max=255"`
	ContentType string `json:"content_type"`
	Content     string `json:"content" validate:"required"`
}

type ViewResultResponse struct {
	DocumentId       string                 `json:"document_id"`
	View             string                 `json:"view"`
	TypeAlias        string                 `json:"type_alias"`
	IsPrimary        bool                   `json:"is_primary"`
	ResultData       map[string]interface{} `json:"result_data"`
	Confidence       *float64               `json:"confidence,omitempty"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
	UpdatedAt        *time.Time             `json:"updated_at"`
}

type ViewStatusResponse struct {
	State string `json:"state"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

type ProcessDocumentResponse struct {
	DocumentId        string                        `json:"document_id"`
	PrimaryView       string                        `json:"primary_view"`
	EnabledViews      []string                      `json:"enabled_views"`
	Method            string                        `json:"method"`
	CacheKey          string                        `json:"cache_key"`
	DetectionScores   map[string]float64            `json:"detection_scores"`
	DetectionDegraded []string                      `json:"detection_degraded,omitempty"`
	SkippedSegments   int                           `json:"skipped_segments"`
	Primary           *ViewResultResponse           `json:"primary"`
	PrimaryError      string                        `json:"primary_error,omitempty"`
	Statuses          map[string]ViewStatusResponse `json:"statuses"`
}

type SwitchViewRequest struct {
	View string `json:"view" validate:"required"`
}

type SwitchViewResponse struct {
	View             string              `json:"view"`
	FromCache        bool                `json:"from_cache"`
	UsedIntermediate bool                `json:"used_intermediate"`
	ResultCacheHit   bool                `json:"result_cache_hit"`
	ProcessingTimeMs int64               `json:"processing_time_ms"`
	Result           *ViewResultResponse `json:"result"`
}

type DocumentStatusResponse struct {
	DocumentId  string                        `json:"document_id"`
	PrimaryView string                        `json:"primary_view"`
	Views       map[string]ViewStatusResponse `json:"views"`
}

type DocumentProfileResponse struct {
	DocumentId      string             `json:"document_id"`
	PrimaryView     string             `json:"primary_view"`
	EnabledViews    []string           `json:"enabled_views"`
	DetectionScores map[string]float64 `json:"detection_scores"`
	CacheKey        string             `json:"cache_key"`
	Method          string             `json:"method"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       *time.Time         `json:"updated_at"`
}

type DetectRequest struct {
	DocumentId string `json:"document_id"`
	Content    string `json:"content" validate:"required"`
}

type DetectResponse struct {
	DetectionScores   map[string]float64 `json:"detection_scores"`
	DetectionDegraded []string           `json:"detection_degraded,omitempty"`
	PrimaryView       string             `json:"primary_view"`
	EnabledViews      []string           `json:"enabled_views"`
	Method            string             `json:"method"`
	CacheKey          string             `json:"cache_key,omitempty"`
}

type ConfidenceRequest struct {
	Base         float64   `json:"base" validate:"gte=0,lte=100"`
	SourceIds    []string  `json:"source_ids"`
	Segments     []string  `json:"segments"`
	Content      string    `json:"content"`
	AIResponse   string    `json:"ai_response"`
	Similarities []float64 `json:"similarities"`
}

type DeleteDocumentResponse struct {
	DocumentId   string `json:"document_id"`
	ViewsDeleted int64  `json:"views_deleted"`
}

// ViewReadyMessage is the dispatch payload telling a worker that a secondary
// view can be built. It is only published after the primary view is stored.
type ViewReadyMessage struct {
	DocumentId string    `json:"document_id"`
	View       string    `json:"view"`
	NotBefore  time.Time `json:"not_before"`
}

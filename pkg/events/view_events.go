package events

import (
	"time"

	"ai-docview-be/pkg/view"
)

const (
	TypeViewCompleted     = "VIEW_COMPLETED"
	TypeViewFailed        = "VIEW_FAILED"
	TypeViewProgress      = "VIEW_PROGRESS"
	TypeDocumentProcessed = "DOCUMENT_PROCESSED"
)

func NewViewCompleted(documentID string, kind view.Kind, isPrimary bool, processingTime time.Duration) BaseEvent {
	return BaseEvent{
		Type: TypeViewCompleted,
		Data: map[string]interface{}{
			"document_id":        documentID,
			"view":               string(kind),
			"is_primary":         isPrimary,
			"processing_time_ms": processingTime.Milliseconds(),
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewViewFailed(documentID string, kind view.Kind, isPrimary bool, cause error) BaseEvent {
	data := map[string]interface{}{
		"document_id": documentID,
		"view":        string(kind),
		"is_primary":  isPrimary,
	}
	if cause != nil {
		data["error"] = cause.Error()
	}
	return BaseEvent{Type: TypeViewFailed, Data: data, OccurredAt: time.Now().UTC()}
}

func NewViewProgress(documentID string, kind view.Kind, percent int, stage string) BaseEvent {
	return BaseEvent{
		Type: TypeViewProgress,
		Data: map[string]interface{}{
			"document_id": documentID,
			"view":        string(kind),
			"percent":     percent,
			"stage":       stage,
		},
		OccurredAt: time.Now().UTC(),
	}
}

func NewDocumentProcessed(documentID string, primary view.Kind, enabled []view.Kind) BaseEvent {
	names := make([]string, len(enabled))
	for i, k := range enabled {
		names[i] = string(k)
	}
	return BaseEvent{
		Type: TypeDocumentProcessed,
		Data: map[string]interface{}{
			"document_id":   documentID,
			"primary_view":  string(primary),
			"enabled_views": names,
		},
		OccurredAt: time.Now().UTC(),
	}
}

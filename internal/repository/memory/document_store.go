package memory

import (
	"sync"
	"time"

	"ai-docview-be/internal/entity"
	"ai-docview-be/pkg/view"

	"github.com/google/uuid"
)

// Store is a process-local stand-in for the relational tables. It backs the
// service when no database is configured and in tests.
type Store struct {
	mu            sync.RWMutex
	profiles      map[string]*entity.DocumentProfile
	intermediates map[string]*entity.IntermediateResult
	views         map[string]map[view.Kind]*entity.ViewResult

	// OnViewUpsert, when set, runs before every view result write; a non-nil
	// error aborts the write.
	OnViewUpsert func(result *entity.ViewResult) error
}

func NewStore() *Store {
	return &Store{
		profiles:      make(map[string]*entity.DocumentProfile),
		intermediates: make(map[string]*entity.IntermediateResult),
		views:         make(map[string]map[view.Kind]*entity.ViewResult),
	}
}

func stamp(id *uuid.UUID, createdAt *time.Time, updatedAt **time.Time, prevId uuid.UUID, prevCreated time.Time) {
	now := time.Now().UTC()
	if prevId != uuid.Nil {
		*id = prevId
		*createdAt = prevCreated
	} else {
		if *id == uuid.Nil {
			*id = uuid.New()
		}
		*createdAt = now
	}
	*updatedAt = &now
}

func copyProfile(p *entity.DocumentProfile) *entity.DocumentProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.EnabledViews = append([]view.Kind(nil), p.EnabledViews...)
	out.DetectionScores = make(map[view.Kind]float64, len(p.DetectionScores))
	for k, v := range p.DetectionScores {
		out.DetectionScores[k] = v
	}
	return &out
}

func copyIntermediate(r *entity.IntermediateResult) *entity.IntermediateResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Segments = view.CopySegments(r.Segments)
	if r.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func copyViewResult(r *entity.ViewResult) *entity.ViewResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.ResultData != nil {
		out.ResultData = make(view.ResultData, len(r.ResultData))
		for k, v := range r.ResultData {
			out.ResultData[k] = v
		}
	}
	return &out
}

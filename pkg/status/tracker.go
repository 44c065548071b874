package status

import (
	"context"
	"time"

	"ai-docview-be/pkg/view"
)

type State string

const (
	StateCompleted  State = "completed"
	StateProcessing State = "processing"
	StatePending    State = "pending"
	StateFailed     State = "failed"
)

const DefaultTTL = 6 * time.Hour

// JobState is the in-flight bookkeeping for one (document, view) pair.
type JobState struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker records transient processing state. Completed results live in the
// view result store; the tracker only explains views that are not there yet.
type Tracker interface {
	Set(ctx context.Context, documentID string, kind view.Kind, state JobState) error
	Get(ctx context.Context, documentID string) (map[view.Kind]JobState, error)
	Clear(ctx context.Context, documentID string) error
}

func Pending() JobState {
	return JobState{State: StatePending, UpdatedAt: time.Now().UTC()}
}

func Processing() JobState {
	return JobState{State: StateProcessing, UpdatedAt: time.Now().UTC()}
}

func Completed() JobState {
	return JobState{State: StateCompleted, UpdatedAt: time.Now().UTC()}
}

func Failed(err error) JobState {
	s := JobState{State: StateFailed, UpdatedAt: time.Now().UTC()}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

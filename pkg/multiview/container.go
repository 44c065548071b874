package multiview

import (
	"encoding/json"
	"sort"
	"time"

	"ai-docview-be/pkg/view"
)

type Meta struct {
	EnabledViews  []view.Kind           `json:"enabled_views"`
	PrimaryView   view.Kind             `json:"primary_view"`
	ConfidenceMap map[view.Kind]float64 `json:"confidence_map"`
	ViewCount     int                   `json:"view_count"`
	Timestamp     time.Time             `json:"timestamp"`
}

// Container is a read-only snapshot of every available view of one document.
type Container struct {
	views map[view.Kind]view.ResultData
	meta  Meta
}

// New builds a container. Nil arguments are treated as empty.
func New(views map[view.Kind]view.ResultData, enabled []view.Kind, confidence map[view.Kind]float64, primary view.Kind) *Container {
	copied := make(map[view.Kind]view.ResultData, len(views))
	for k, v := range views {
		copied[k] = v
	}

	conf := make(map[view.Kind]float64, len(confidence))
	for k, v := range confidence {
		conf[k] = v
	}

	en := make([]view.Kind, len(enabled))
	copy(en, enabled)

	return &Container{
		views: copied,
		meta: Meta{
			EnabledViews:  en,
			PrimaryView:   primary,
			ConfidenceMap: conf,
			ViewCount:     len(copied),
			Timestamp:     time.Now().UTC(),
		},
	}
}

func (c *Container) Get(kind view.Kind) (view.ResultData, bool) {
	data, ok := c.views[kind]
	return data, ok
}

func (c *Container) Has(kind view.Kind) bool {
	_, ok := c.views[kind]
	return ok
}

// List returns the available views: enabled order first, then the rest sorted by name.
func (c *Container) List() []view.Kind {
	out := make([]view.Kind, 0, len(c.views))
	seen := make(map[view.Kind]bool, len(c.views))
	for _, k := range c.meta.EnabledViews {
		if c.Has(k) && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}

	var rest []view.Kind
	for k := range c.views {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

func (c *Container) PrimaryView() view.Kind {
	return c.meta.PrimaryView
}

func (c *Container) EnabledViews() []view.Kind {
	out := make([]view.Kind, len(c.meta.EnabledViews))
	copy(out, c.meta.EnabledViews)
	return out
}

// ConfidenceOf returns the score of kind, or of the primary view when kind is empty.
func (c *Container) ConfidenceOf(kind view.Kind) (float64, bool) {
	if kind == "" {
		kind = c.meta.PrimaryView
	}
	score, ok := c.meta.ConfidenceMap[kind]
	return score, ok
}

func (c *Container) Meta() Meta {
	m := c.meta
	m.EnabledViews = c.EnabledViews()
	m.ConfidenceMap = make(map[view.Kind]float64, len(c.meta.ConfidenceMap))
	for k, v := range c.meta.ConfidenceMap {
		m.ConfidenceMap[k] = v
	}
	return m
}

func (c *Container) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Views map[view.Kind]view.ResultData `json:"views"`
		Meta  Meta                          `json:"meta"`
	}{
		Views: c.views,
		Meta:  c.meta,
	})
}

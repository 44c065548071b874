package recommend

import (
	"context"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/detect"
	"ai-docview-be/pkg/view"
)

type Method string

const (
	MethodRule Method = "rule"
	MethodAI   Method = "ai"
)

// Recommendation is the decided primary view plus the set of views worth producing.
// Primary is always a member of Enabled and Enabled is never empty.
type Recommendation struct {
	Primary view.Kind     `json:"primary_view"`
	Enabled []view.Kind   `json:"enabled_views"`
	Scores  detect.Scores `json:"detection_scores"`
	Method  Method        `json:"method"`
}

func (r Recommendation) IsEnabled(kind view.Kind) bool {
	for _, k := range r.Enabled {
		if k == kind {
			return true
		}
	}
	return false
}

// Secondary returns the enabled views other than the primary, in order.
func (r Recommendation) Secondary() []view.Kind {
	out := make([]view.Kind, 0, len(r.Enabled))
	for _, k := range r.Enabled {
		if k != r.Primary {
			out = append(out, k)
		}
	}
	return out
}

// AIRecommender is an optional second opinion consulted when the rule-based
// primary is weak.
type AIRecommender interface {
	Recommend(ctx context.Context, content string, scores detect.Scores) (*Recommendation, error)
}

type Config struct {
	InclusionThreshold float64
	ConfidenceFloor    float64
	DefaultView        view.Kind
}

func DefaultConfig() Config {
	return Config{
		InclusionThreshold: 0.3,
		ConfidenceFloor:    0.5,
		DefaultView:        view.KindQA,
	}
}

type Recommender struct {
	detector *detect.Detector
	registry *view.Registry
	ai       AIRecommender
	cfg      Config
	logger   logger.ILogger
}

// NewRecommender builds a recommender. ai may be nil.
func NewRecommender(detector *detect.Detector, registry *view.Registry, ai AIRecommender, cfg Config, log logger.ILogger) *Recommender {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Recommender{
		detector: detector,
		registry: registry,
		ai:       ai,
		cfg:      cfg,
		logger:   log,
	}
}

// Recommend detects and recommends in one step. It never fails.
func (r *Recommender) Recommend(ctx context.Context, content string) Recommendation {
	return r.FromScores(ctx, content, r.detector.Detect(content))
}

// FromScores recommends from already measured scores.
func (r *Recommender) FromScores(ctx context.Context, content string, scores detect.Scores) Recommendation {
	rule := r.ruleBased(scores)

	if r.ai == nil || rule.Scores[rule.Primary] >= r.cfg.ConfidenceFloor {
		return rule
	}

	suggested, err := r.ai.Recommend(ctx, content, scores.Clone())
	if err != nil {
		r.logger.Warn("ViewRecommender", "AI recommender failed, keeping rule result", map[string]interface{}{
			"error":   err.Error(),
			"primary": rule.Primary,
		})
		return rule
	}

	normalized, ok := r.normalize(suggested, scores)
	if !ok {
		r.logger.Warn("ViewRecommender", "AI recommender returned an unusable answer", map[string]interface{}{
			"primary": rule.Primary,
		})
		return rule
	}
	return normalized
}

func (r *Recommender) ruleBased(scores detect.Scores) Recommendation {
	views := r.candidateViews(scores)

	primary := r.cfg.DefaultView
	best := 0.0
	for _, k := range views {
		if s := scores[k]; s > best {
			best = s
			primary = k
		}
	}
	if best == 0 && !r.registry.IsRegistered(primary) && len(views) > 0 {
		primary = views[0]
	}

	enabled := []view.Kind{primary}
	for _, k := range views {
		if k != primary && scores[k] >= r.cfg.InclusionThreshold {
			enabled = append(enabled, k)
		}
	}

	return Recommendation{
		Primary: primary,
		Enabled: enabled,
		Scores:  scores.Clone(),
		Method:  MethodRule,
	}
}

// candidateViews lists registered views that have a score, in registry order.
func (r *Recommender) candidateViews(scores detect.Scores) []view.Kind {
	var out []view.Kind
	for _, k := range r.registry.Views() {
		if _, ok := scores[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

func (r *Recommender) normalize(s *Recommendation, scores detect.Scores) (Recommendation, bool) {
	if s == nil || !r.registry.IsRegistered(s.Primary) {
		return Recommendation{}, false
	}

	enabled := []view.Kind{s.Primary}
	seen := map[view.Kind]bool{s.Primary: true}
	for _, k := range s.Enabled {
		if seen[k] || !r.registry.IsRegistered(k) {
			continue
		}
		seen[k] = true
		enabled = append(enabled, k)
	}

	return Recommendation{
		Primary: s.Primary,
		Enabled: enabled,
		Scores:  scores.Clone(),
		Method:  MethodAI,
	}, true
}

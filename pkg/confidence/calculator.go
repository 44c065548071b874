package confidence

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/view"
)

type Label string

const (
	LabelHigh   Label = "high"
	LabelMedium Label = "medium"
	LabelLow    Label = "low"
)

// Neutral fallbacks substituted when a factor cannot be computed.
const (
	NeutralRetrieval     = 0.5
	NeutralSimilarity    = 0.5
	NeutralConcentration = 0.5
	NeutralConsistency   = 1.0
)

var errNoSegments = errors.New("document has no segments")

type Factors struct {
	RetrievalStrength float64 `json:"retrieval_strength"`
	Similarity        float64 `json:"similarity"`
	Concentration     float64 `json:"concentration"`
	Consistency       float64 `json:"consistency"`
}

type Score struct {
	Score    float64  `json:"score"`
	Label    Label    `json:"label"`
	Factors  Factors  `json:"factors"`
	Degraded []string `json:"degraded,omitempty"`
}

// Input carries everything the factors look at. Base is the model's
// self-reported confidence on a 0-100 scale.
type Input struct {
	Base         float64
	SourceIDs    []string
	Segments     []view.Segment
	Content      string
	AIResponse   string
	Similarities []float64
}

// Factor is the outcome of one sub-computation. A non-nil Err means Value is unusable.
type Factor struct {
	Value float64
	Err   error
}

type FactorFunc func(in Input, cfg Config) Factor

type Config struct {
	BaseWeight          float64
	RetrievalWeight     float64
	SimilarityWeight    float64
	ConcentrationWeight float64
	ConsistencyWeight   float64

	HighThreshold   float64
	MediumThreshold float64

	SegmentLengthNorm        float64
	RetrievalValidShare      float64
	ConsistencyPenaltyBelow  float64
	ConsistencyPenaltyFactor float64

	OutOfScopeRatio   float64
	OutOfScopePenalty float64
	NegationDensity   float64
	NegationPenalty   float64
}

func DefaultConfig() Config {
	return Config{
		BaseWeight:          0.4,
		RetrievalWeight:     0.3,
		SimilarityWeight:    0.2,
		ConcentrationWeight: 0.2,
		ConsistencyWeight:   0.3,

		HighThreshold:   75,
		MediumThreshold: 40,

		SegmentLengthNorm:        200,
		RetrievalValidShare:      0.6,
		ConsistencyPenaltyBelow:  0.5,
		ConsistencyPenaltyFactor: 0.8,

		OutOfScopeRatio:   0.3,
		OutOfScopePenalty: 20,
		NegationDensity:   0.1,
		NegationPenalty:   5,
	}
}

// Calculator blends self-reported confidence with grounding signals.
// The factor functions are fields so each can be replaced independently.
type Calculator struct {
	cfg    Config
	logger logger.ILogger

	Retrieval     FactorFunc
	Similarity    FactorFunc
	Concentration FactorFunc
	Consistency   FactorFunc
}

func NewCalculator(cfg Config, log logger.ILogger) *Calculator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Calculator{
		cfg:           cfg,
		logger:        log,
		Retrieval:     RetrievalStrength,
		Similarity:    AverageSimilarity,
		Concentration: Concentration,
		Consistency:   Consistency,
	}
}

// Compute never panics and always returns a score in [0,100].
func (c *Calculator) Compute(in Input) (out Score) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("ConfidenceCalculator", "Confidence computation failed, using base confidence", map[string]interface{}{
				"error": fmt.Sprint(r),
			})
			out = c.fallback(in.Base)
		}
	}()

	var degraded []string
	run := func(name string, fn FactorFunc, neutral float64) float64 {
		f := c.guard(fn, in)
		if f.Err != nil {
			degraded = append(degraded, name)
			c.logger.Warn("ConfidenceCalculator", "Confidence factor degraded", map[string]interface{}{
				"factor":   name,
				"error":    f.Err.Error(),
				"fallback": neutral,
			})
			return neutral
		}
		return clamp(f.Value, 0, 1)
	}

	factors := Factors{
		RetrievalStrength: run("retrieval_strength", c.Retrieval, NeutralRetrieval),
		Similarity:        run("similarity", c.Similarity, NeutralSimilarity),
		Concentration:     run("concentration", c.Concentration, NeutralConcentration),
		Consistency:       run("consistency", c.Consistency, NeutralConsistency),
	}

	base := finiteOr(in.Base, 0)
	score := base*c.cfg.BaseWeight +
		factors.RetrievalStrength*100*c.cfg.RetrievalWeight +
		factors.Similarity*100*c.cfg.SimilarityWeight +
		factors.Concentration*100*c.cfg.ConcentrationWeight +
		factors.Consistency*100*c.cfg.ConsistencyWeight
	score -= c.penalties(in)
	score = clamp(score, 0, 100)

	return Score{
		Score:    score,
		Label:    c.label(score),
		Factors:  factors,
		Degraded: degraded,
	}
}

func (c *Calculator) guard(fn FactorFunc, in Input) (f Factor) {
	defer func() {
		if r := recover(); r != nil {
			f = Factor{Err: fmt.Errorf("factor panicked: %v", r)}
		}
	}()
	if fn == nil {
		return Factor{Err: errors.New("factor not configured")}
	}
	f = fn(in, c.cfg)
	if f.Err == nil && (math.IsNaN(f.Value) || math.IsInf(f.Value, 0)) {
		f.Err = fmt.Errorf("factor returned %v", f.Value)
	}
	return f
}

func (c *Calculator) penalties(in Input) (total float64) {
	defer func() {
		if r := recover(); r != nil {
			total = 0
		}
	}()

	respTokens := Tokens(in.AIResponse)
	if len(respTokens) == 0 {
		return 0
	}

	if c.outOfScopeRatio(in) > c.cfg.OutOfScopeRatio {
		total += c.cfg.OutOfScopePenalty
	}
	density := float64(countNegations(in.AIResponse)) / float64(len(respTokens))
	if density > c.cfg.NegationDensity {
		total += c.cfg.NegationPenalty
	}
	return total
}

func (c *Calculator) outOfScopeRatio(in Input) float64 {
	resp := tokenSet(in.AIResponse)
	if len(resp) == 0 {
		return 0
	}
	return 1 - overlap(resp, sourceTokens(in))
}

func (c *Calculator) label(score float64) Label {
	switch {
	case score >= c.cfg.HighThreshold:
		return LabelHigh
	case score >= c.cfg.MediumThreshold:
		return LabelMedium
	default:
		return LabelLow
	}
}

func (c *Calculator) fallback(base float64) Score {
	score := clamp(finiteOr(base, 0), 0, 100)
	return Score{
		Score: score,
		Label: c.label(score),
		Factors: Factors{
			RetrievalStrength: NeutralRetrieval,
			Similarity:        NeutralSimilarity,
			Concentration:     NeutralConcentration,
			Consistency:       NeutralConsistency,
		},
		Degraded: []string{"all"},
	}
}

// RetrievalStrength blends the share of source ids that reference real
// segments with the average length of the referenced segments.
func RetrievalStrength(in Input, cfg Config) Factor {
	if len(in.SourceIDs) == 0 {
		return Factor{Value: 0}
	}

	index := segmentIndex(in.Segments)
	valid := 0
	totalLen := 0
	seen := make(map[string]bool)
	for _, id := range in.SourceIDs {
		seg, ok := lookup(index, in.Segments, id)
		if !ok {
			continue
		}
		valid++
		if !seen[seg.ID] {
			seen[seg.ID] = true
			totalLen += len([]rune(seg.Text))
		}
	}

	validShare := float64(valid) / float64(len(in.SourceIDs))
	lengthScore := 0.0
	if len(seen) > 0 && cfg.SegmentLengthNorm > 0 {
		lengthScore = math.Min(1, float64(totalLen)/float64(len(seen))/cfg.SegmentLengthNorm)
	}
	return Factor{Value: cfg.RetrievalValidShare*validShare + (1-cfg.RetrievalValidShare)*lengthScore}
}

// AverageSimilarity averages externally supplied similarity scores.
func AverageSimilarity(in Input, cfg Config) Factor {
	if len(in.Similarities) == 0 {
		return Factor{Value: NeutralSimilarity}
	}
	sum := 0.0
	for _, s := range in.Similarities {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return Factor{Err: fmt.Errorf("invalid similarity %v", s)}
		}
		sum += clamp(s, 0, 1)
	}
	return Factor{Value: sum / float64(len(in.Similarities))}
}

// Concentration rewards answers grounded in a narrow set of segments.
func Concentration(in Input, cfg Config) Factor {
	if len(in.Segments) == 0 {
		return Factor{Err: errNoSegments}
	}

	index := segmentIndex(in.Segments)
	distinct := make(map[string]bool)
	for _, id := range in.SourceIDs {
		if seg, ok := lookup(index, in.Segments, id); ok {
			distinct[seg.ID] = true
		}
	}

	ratio := float64(len(distinct)) / float64(len(in.Segments))
	switch {
	case ratio <= 0.2:
		return Factor{Value: 1.0}
	case ratio <= 0.5:
		return Factor{Value: 0.8}
	case ratio <= 0.8:
		return Factor{Value: 0.6}
	default:
		return Factor{Value: 0.4}
	}
}

// Consistency measures keyword overlap between the answer and its sources.
func Consistency(in Input, cfg Config) Factor {
	resp := tokenSet(in.AIResponse)
	if len(resp) == 0 {
		return Factor{Value: NeutralConsistency}
	}
	ratio := overlap(resp, sourceTokens(in))
	if ratio < cfg.ConsistencyPenaltyBelow {
		ratio *= cfg.ConsistencyPenaltyFactor
	}
	return Factor{Value: ratio}
}

func sourceTokens(in Input) map[string]struct{} {
	texts := make([]string, 0, len(in.Segments)+1)
	texts = append(texts, in.Content)
	for _, s := range in.Segments {
		texts = append(texts, s.Text)
	}
	return tokenSet(texts...)
}

func overlap(resp, source map[string]struct{}) float64 {
	if len(resp) == 0 {
		return 0
	}
	hits := 0
	for tok := range resp {
		if _, ok := source[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(resp))
}

func segmentIndex(segments []view.Segment) map[string]int {
	index := make(map[string]int, len(segments))
	for i, s := range segments {
		index[s.ID] = i
	}
	return index
}

// lookup accepts either a segment id or its numeric position.
func lookup(index map[string]int, segments []view.Segment, id string) (view.Segment, bool) {
	if i, ok := index[id]; ok {
		return segments[i], true
	}
	if n, err := strconv.Atoi(id); err == nil && n >= 0 && n < len(segments) {
		return segments[n], true
	}
	return view.Segment{}, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// AsMap renders the score the way it is embedded in view results.
func (s Score) AsMap() map[string]interface{} {
	out := map[string]interface{}{
		"score": s.Score,
		"label": string(s.Label),
		"factors": map[string]interface{}{
			"retrieval_strength": s.Factors.RetrievalStrength,
			"similarity":         s.Factors.Similarity,
			"concentration":      s.Factors.Concentration,
			"consistency":        s.Factors.Consistency,
		},
	}
	if len(s.Degraded) > 0 {
		out["degraded"] = s.Degraded
	}
	return out
}

// Cited resolves source ids to segments, skipping unknown ids and duplicates.
func Cited(segments []view.Segment, ids []string) []view.Segment {
	index := segmentIndex(segments)
	seen := make(map[string]bool, len(ids))
	out := make([]view.Segment, 0, len(ids))
	for _, id := range ids {
		seg, ok := lookup(index, segments, id)
		if !ok || seen[seg.ID] {
			continue
		}
		seen[seg.ID] = true
		out = append(out, seg)
	}
	return out
}

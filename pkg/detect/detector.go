package detect

import (
	"fmt"
	"math"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/view"
)

// NeutralScore replaces the output of a feature function that could not be computed.
const NeutralScore = 0.5

// Scores holds one structural score in [0,1] per view, computed purely from content.
type Scores map[view.Kind]float64

// Clone returns an independent copy.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FeatureFunc is a pure scoring function over raw content.
type FeatureFunc func(content string) float64

// Feature binds a scoring function to the view it measures.
type Feature struct {
	Name string
	View view.Kind
	Fn   FeatureFunc
}

// DefaultFeatures is the static feature → view alias table.
func DefaultFeatures() []Feature {
	return []Feature{
		{Name: "qa", View: view.KindQA, Fn: DetectQA},
		{Name: "structure", View: view.KindSystem, Fn: DetectStructure},
		{Name: "flow", View: view.KindLearning, Fn: DetectFlow},
	}
}

// Result is the outcome of one feature function. Degraded results carry
// NeutralScore as Value and the cause in Err.
type Result struct {
	Value    float64
	Degraded bool
	Err      error
}

// Report is the full detection outcome including which features degraded.
type Report struct {
	Scores   Scores
	Degraded []string
}

type Detector struct {
	features []Feature
	logger   logger.ILogger
}

func NewDetector(log logger.ILogger, features ...Feature) *Detector {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if len(features) == 0 {
		features = DefaultFeatures()
	}
	return &Detector{features: features, logger: log}
}

// Run evaluates a single feature. A panic or a non-finite value degrades to NeutralScore.
func Run(fn FeatureFunc, content string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Value: NeutralScore, Degraded: true, Err: fmt.Errorf("feature panicked: %v", r)}
		}
	}()

	v := fn(content)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Result{Value: NeutralScore, Degraded: true, Err: fmt.Errorf("feature returned %v", v)}
	}
	return Result{Value: capScore(v)}
}

// Detect returns one score per configured view.
func (d *Detector) Detect(content string) Scores {
	return d.DetectReport(content).Scores
}

func (d *Detector) DetectReport(content string) Report {
	report := Report{Scores: make(Scores, len(d.features))}
	for _, f := range d.features {
		res := Run(f.Fn, content)
		if res.Degraded {
			report.Degraded = append(report.Degraded, f.Name)
			d.logger.Warn("FeatureDetector", "Detection degraded, using neutral score", map[string]interface{}{
				"feature": f.Name,
				"view":    f.View,
				"error":   res.Err.Error(),
			})
		}
		report.Scores[f.View] = res.Value
	}
	return report
}

package confidence

import (
	"errors"
	"math"
	"testing"

	"ai-docview-be/pkg/view"

	"github.com/stretchr/testify/assert"
)

func segments(texts ...string) []view.Segment {
	out := make([]view.Segment, len(texts))
	for i, t := range texts {
		out[i] = view.Segment{ID: view.SegmentID(i), Index: i, Text: t}
	}
	return out
}

func failing(Input, Config) Factor {
	return Factor{Err: errors.New("boom")}
}

func TestCompute_GroundedAnswer(t *testing.T) {
	calc := NewCalculator(DefaultConfig(), nil)

	score := calc.Compute(Input{
		Base:       80,
		SourceIDs:  []string{"seg-0"},
		Segments:   segments("The gateway routes requests to the billing service.", "Unrelated appendix text.", "Glossary.", "Index.", "Credits."),
		AIResponse: "gateway routes requests billing service",
	})

	assert.Empty(t, score.Degraded)
	assert.Equal(t, LabelHigh, score.Label)
	assert.GreaterOrEqual(t, score.Score, 0.0)
	assert.LessOrEqual(t, score.Score, 100.0)
	assert.Equal(t, 1.0, score.Factors.Concentration)
	assert.Equal(t, 1.0, score.Factors.Consistency)
}

func TestCompute_NoSourceIDs(t *testing.T) {
	calc := NewCalculator(DefaultConfig(), nil)

	score := calc.Compute(Input{Base: 50, Segments: segments("text")})

	assert.Equal(t, 0.0, score.Factors.RetrievalStrength)
	assert.Empty(t, score.Degraded)
}

func TestCompute_AllFactorsFail(t *testing.T) {
	calc := NewCalculator(DefaultConfig(), nil)
	calc.Retrieval = failing
	calc.Similarity = failing
	calc.Concentration = func(Input, Config) Factor { panic("nope") }
	calc.Consistency = failing

	score := calc.Compute(Input{Base: 80})

	assert.ElementsMatch(t, []string{"retrieval_strength", "similarity", "concentration", "consistency"}, score.Degraded)
	assert.Equal(t, NeutralRetrieval, score.Factors.RetrievalStrength)
	assert.Equal(t, NeutralConsistency, score.Factors.Consistency)
	// 80*0.4 + 50*0.3 + 50*0.2 + 50*0.2 + 100*0.3
	assert.InDelta(t, 97.0, score.Score, 1e-9)
}

func TestCompute_NonFiniteFactorIsDegraded(t *testing.T) {
	calc := NewCalculator(DefaultConfig(), nil)
	calc.Similarity = func(Input, Config) Factor { return Factor{Value: math.NaN()} }

	score := calc.Compute(Input{Base: 50, Segments: segments("a")})

	assert.Contains(t, score.Degraded, "similarity")
	assert.Equal(t, NeutralSimilarity, score.Factors.Similarity)
}

func TestCompute_ScoreAlwaysInRange(t *testing.T) {
	calc := NewCalculator(DefaultConfig(), nil)

	for _, base := range []float64{-1000, 0, 50, 100, 5000, math.NaN(), math.Inf(1)} {
		score := calc.Compute(Input{Base: base, SourceIDs: []string{"seg-9", "x"}, AIResponse: "不 不 不"})
		assert.GreaterOrEqual(t, score.Score, 0.0)
		assert.LessOrEqual(t, score.Score, 100.0)
	}
}

func TestCompute_OutOfScopePenalty(t *testing.T) {
	calc := NewCalculator(DefaultConfig(), nil)

	score := calc.Compute(Input{
		Base:       50,
		Segments:   segments("billing service"),
		AIResponse: "quantum entanglement photon",
	})

	// 50*0.4 + 0 + 50*0.2 + 100*0.2 + 0 - 20
	assert.InDelta(t, 30.0, score.Score, 1e-9)
	assert.Equal(t, LabelLow, score.Label)
}

func TestCompute_NegationPenalty(t *testing.T) {
	calc := NewCalculator(DefaultConfig(), nil)
	in := Input{
		Base:      50,
		SourceIDs: []string{"seg-0"},
		Segments:  segments("billing service"),
	}

	in.AIResponse = "billing service"
	plain := calc.Compute(in)

	in.AIResponse = "not billing not service"
	negated := calc.Compute(in)

	assert.InDelta(t, 5.0, plain.Score-negated.Score, 1e-9)
}

func TestConcentration_Buckets(t *testing.T) {
	segs := segments("a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	ids := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = view.SegmentID(i)
		}
		return out
	}

	tests := []struct {
		referenced int
		want       float64
	}{
		{0, 1.0},
		{2, 1.0},
		{4, 0.8},
		{7, 0.6},
		{10, 0.4},
	}
	for _, tt := range tests {
		f := Concentration(Input{Segments: segs, SourceIDs: ids(tt.referenced)}, DefaultConfig())
		assert.NoError(t, f.Err)
		assert.Equal(t, tt.want, f.Value, "referenced=%d", tt.referenced)
	}

	f := Concentration(Input{}, DefaultConfig())
	assert.Error(t, f.Err)
}

func TestConsistency(t *testing.T) {
	cfg := DefaultConfig()

	f := Consistency(Input{Content: "alpha", AIResponse: "alpha beta"}, cfg)
	assert.InDelta(t, 0.5, f.Value, 1e-9)

	f = Consistency(Input{Content: "alpha", AIResponse: "alpha beta gamma"}, cfg)
	assert.InDelta(t, 1.0/3*0.8, f.Value, 1e-9)

	f = Consistency(Input{Content: "alpha"}, cfg)
	assert.Equal(t, NeutralConsistency, f.Value)
}

func TestRetrievalStrength_AcceptsNumericIndex(t *testing.T) {
	segs := segments("short")

	byID := RetrievalStrength(Input{Segments: segs, SourceIDs: []string{"seg-0"}}, DefaultConfig())
	byIndex := RetrievalStrength(Input{Segments: segs, SourceIDs: []string{"0"}}, DefaultConfig())
	invalid := RetrievalStrength(Input{Segments: segs, SourceIDs: []string{"seg-7"}}, DefaultConfig())

	assert.Equal(t, byID.Value, byIndex.Value)
	assert.Equal(t, 0.0, invalid.Value)
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"系统", "统架", "架构", "gateway"}, Tokens("系统架构 the Gateway"))
	assert.Empty(t, Tokens("  , . "))
}

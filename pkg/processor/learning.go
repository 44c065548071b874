package processor

import (
	"context"
	"sort"

	"ai-docview-be/internal/constant"
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/confidence"
	"ai-docview-be/pkg/llm"
	"ai-docview-be/pkg/view"
)

type LearningProcessor struct {
	base
}

func NewLearningProcessor(provider llm.LLMProvider, calc *confidence.Calculator, log logger.ILogger) *LearningProcessor {
	return &LearningProcessor{base: newBase("learning processor", provider, calc, log)}
}

func (p *LearningProcessor) Capabilities() view.Capabilities {
	return view.Capabilities{Progress: true}
}

func (p *LearningProcessor) Process(ctx context.Context, in view.Input) (view.ResultData, error) {
	segments := segmentsOf(in)
	if len(segments) == 0 {
		return nil, errNoContent
	}

	report(in, 10, "building learning path")
	out, err := p.generate(ctx, constant.LearningPathPrompt, segments)
	if err != nil {
		return nil, err
	}
	report(in, 80, "scoring")

	selfReported, ok := numberOf(out[view.ConfidenceKey])
	if !ok {
		selfReported = defaultBase
	}

	result := view.ResultData(out)
	steps, _ := result["steps"].([]interface{})
	sortSteps(steps)
	if steps == nil {
		steps = []interface{}{}
	}
	result["steps"] = steps
	result["step_count"] = len(steps)
	p.score(ctx, result, in, segments, selfReported)

	report(in, 100, "done")
	return result, nil
}

// sortSteps orders steps by their "order" field; steps without one keep their relative position at the end.
func sortSteps(steps []interface{}) {
	order := func(item interface{}) (float64, bool) {
		m, ok := item.(map[string]interface{})
		if !ok {
			return 0, false
		}
		return numberOf(m["order"])
	}
	sort.SliceStable(steps, func(i, j int) bool {
		oi, iok := order(steps[i])
		oj, jok := order(steps[j])
		if iok && jok {
			return oi < oj
		}
		return iok && !jok
	})
}

package processor

import (
	"context"

	"ai-docview-be/internal/constant"
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/confidence"
	"ai-docview-be/pkg/llm"
	"ai-docview-be/pkg/view"
)

// SystemProcessor describes the components and dependencies of the system
// a document explains, in a single model call.
type SystemProcessor struct {
	base
}

func NewSystemProcessor(provider llm.LLMProvider, calc *confidence.Calculator, log logger.ILogger) *SystemProcessor {
	return &SystemProcessor{base: newBase("system processor", provider, calc, log)}
}

func (p *SystemProcessor) Process(ctx context.Context, in view.Input) (view.ResultData, error) {
	segments := segmentsOf(in)
	if len(segments) == 0 {
		return nil, errNoContent
	}

	out, err := p.generate(ctx, constant.SystemAnalysisPrompt, segments)
	if err != nil {
		return nil, err
	}

	selfReported, ok := numberOf(out[view.ConfidenceKey])
	if !ok {
		selfReported = defaultBase
	}

	result := view.ResultData(out)
	if _, ok := result["components"]; !ok {
		result["components"] = []interface{}{}
	}
	result["segment_count"] = len(segments)
	p.score(ctx, result, in, segments, selfReported)
	return result, nil
}

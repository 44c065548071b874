package processor

import (
	"context"
	"fmt"

	"ai-docview-be/internal/constant"
	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/confidence"
	"ai-docview-be/pkg/llm"
	"ai-docview-be/pkg/view"
)

// QAProcessor extracts question/answer pairs batch by batch. A failed batch
// is skipped; the view fails only when every batch fails.
type QAProcessor struct {
	base
	batchRunes int
}

func NewQAProcessor(provider llm.LLMProvider, calc *confidence.Calculator, log logger.ILogger, batchRunes int) *QAProcessor {
	return &QAProcessor{
		base:       newBase("qa processor", provider, calc, log),
		batchRunes: batchRunes,
	}
}

func (p *QAProcessor) Capabilities() view.Capabilities {
	return view.Capabilities{Progress: true}
}

func (p *QAProcessor) Process(ctx context.Context, in view.Input) (view.ResultData, error) {
	segments := segmentsOf(in)
	if len(segments) == 0 {
		return nil, errNoContent
	}

	batches := batchSegments(segments, p.batchRunes)
	pairs := make([]interface{}, 0)
	failed := 0
	var lastErr error

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := p.generate(ctx, constant.QAExtractionPrompt, batch)
		if err != nil {
			failed++
			lastErr = err
			p.logger.Warn("QAProcessor", "Batch extraction failed, skipping", map[string]interface{}{
				"batch": i,
				"error": err.Error(),
			})
		} else if items, ok := out["pairs"].([]interface{}); ok {
			pairs = append(pairs, items...)
		}

		report(in, (i+1)*100/len(batches), fmt.Sprintf("batch %d/%d", i+1, len(batches)))
	}

	if failed == len(batches) {
		return nil, lastErr
	}

	result := view.ResultData{
		"pairs":          pairs,
		"pair_count":     len(pairs),
		"batches":        len(batches),
		"failed_batches": failed,
	}
	p.score(ctx, result, in, segments, averageConfidence(pairs))
	return result, nil
}

func averageConfidence(items []interface{}) float64 {
	sum, n := 0.0, 0
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if c, ok := numberOf(m["confidence"]); ok {
			sum += c
			n++
		}
	}
	if n == 0 {
		return defaultBase
	}
	return sum / float64(n)
}

package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ai-docview-be/internal/pkg/logger"
	"ai-docview-be/pkg/confidence"
	"ai-docview-be/pkg/embedding"
	"ai-docview-be/pkg/llm"
	"ai-docview-be/pkg/view"
)

const (
	DefaultBatchRunes = 4000
	defaultBase       = 50.0
	sourceIDsKey      = "source_ids"
)

var errNoContent = errors.New("document has no content")

type base struct {
	name       string
	provider   llm.LLMProvider
	calculator *confidence.Calculator
	embedder   embedding.Embedder
	logger     logger.ILogger
}

func newBase(name string, provider llm.LLMProvider, calc *confidence.Calculator, log logger.ILogger) base {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if calc == nil {
		calc = confidence.NewCalculator(confidence.DefaultConfig(), log)
	}
	return base{name: name, provider: provider, calculator: calc, logger: log}
}

func (b *base) generate(ctx context.Context, prompt string, segments []view.Segment) (map[string]interface{}, error) {
	out, err := llm.GenerateStructured(ctx, b.provider, fmt.Sprintf(prompt, formatSegments(segments)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.name, err)
	}
	return out, nil
}

// UseEmbedder enables embedding similarity between the answer and the cited
// segments. Without one the similarity factor stays neutral.
func (b *base) UseEmbedder(e embedding.Embedder) {
	b.embedder = e
}

// score replaces the model's self-reported confidence with the blended score
// and keeps the original under ai_confidence.
func (b *base) score(ctx context.Context, result view.ResultData, in view.Input, segments []view.Segment, selfReported float64) {
	sourceIDs := collectSourceIDs(map[string]interface{}(result))
	response := responseText(map[string]interface{}(result))

	score := b.calculator.Compute(confidence.Input{
		Base:         selfReported,
		SourceIDs:    sourceIDs,
		Segments:     segments,
		Content:      in.Content,
		AIResponse:   response,
		Similarities: b.similarities(ctx, response, confidence.Cited(segments, sourceIDs)),
	})
	result["ai_confidence"] = selfReported
	result[view.ConfidenceKey] = score.AsMap()
}

func (b *base) similarities(ctx context.Context, response string, cited []view.Segment) []float64 {
	if b.embedder == nil {
		return nil
	}
	sims, err := embedding.Similarities(ctx, b.embedder, response, cited)
	if err != nil {
		b.logger.Warn("Processor", "Embedding similarity unavailable", map[string]interface{}{
			"processor": b.name,
			"error":     err.Error(),
		})
		return nil
	}
	return sims
}

func segmentsOf(in view.Input) []view.Segment {
	if len(in.Segments) > 0 {
		return in.Segments
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil
	}
	return []view.Segment{{ID: view.SegmentID(0), Index: 0, Text: in.Content}}
}

func report(in view.Input, percent int, stage string) {
	if in.Progress != nil {
		in.Progress(percent, stage)
	}
}

func formatSegments(segments []view.Segment) string {
	var sb strings.Builder
	for i, s := range segments {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(s.ID)
		sb.WriteString("] ")
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// batchSegments groups consecutive segments so each batch stays under maxRunes.
// A segment longer than maxRunes gets a batch of its own.
func batchSegments(segments []view.Segment, maxRunes int) [][]view.Segment {
	if maxRunes <= 0 {
		maxRunes = DefaultBatchRunes
	}

	var batches [][]view.Segment
	var current []view.Segment
	size := 0
	for _, s := range segments {
		n := len([]rune(s.Text))
		if len(current) > 0 && size+n > maxRunes {
			batches = append(batches, current)
			current, size = nil, 0
		}
		current = append(current, s)
		size += n
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// collectSourceIDs walks decoded JSON and gathers every source_ids entry, deduplicated in first-seen order.
func collectSourceIDs(v interface{}) []string {
	seen := make(map[string]bool)
	var out []string

	var walk func(interface{})
	walk = func(node interface{}) {
		switch n := node.(type) {
		case map[string]interface{}:
			keys := make([]string, 0, len(n))
			for k := range n {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if k == sourceIDsKey {
					for _, id := range stringsOf(n[k]) {
						if !seen[id] {
							seen[id] = true
							out = append(out, id)
						}
					}
					continue
				}
				walk(n[k])
			}
		case view.ResultData:
			walk(map[string]interface{}(n))
		case []interface{}:
			for _, item := range n {
				walk(item)
			}
		case []map[string]interface{}:
			for _, item := range n {
				walk(item)
			}
		}
	}
	walk(v)
	return out
}

// responseText flattens the answer's prose so it can be compared with the source.
func responseText(v interface{}) string {
	var parts []string

	var walk func(interface{})
	walk = func(node interface{}) {
		switch n := node.(type) {
		case string:
			parts = append(parts, n)
		case map[string]interface{}:
			keys := make([]string, 0, len(n))
			for k := range n {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if k == sourceIDsKey || k == view.ConfidenceKey {
					continue
				}
				walk(n[k])
			}
		case []interface{}:
			for _, item := range n {
				walk(item)
			}
		case []map[string]interface{}:
			for _, item := range n {
				walk(item)
			}
		}
	}
	walk(v)
	return strings.Join(parts, " ")
}

func stringsOf(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			switch id := item.(type) {
			case string:
				out = append(out, id)
			case float64:
				out = append(out, fmt.Sprintf("%d", int(id)))
			}
		}
		return out
	case string:
		return []string{s}
	}
	return nil
}

func numberOf(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

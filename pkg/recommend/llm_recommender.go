package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ai-docview-be/internal/constant"
	"ai-docview-be/pkg/detect"
	"ai-docview-be/pkg/llm"
	"ai-docview-be/pkg/view"
)

const maxExcerptRunes = 3000

// LLMRecommender asks a language model to pick views when the structural
// signals are inconclusive.
type LLMRecommender struct {
	provider llm.LLMProvider
	views    []view.Kind
}

func NewLLMRecommender(provider llm.LLMProvider, views []view.Kind) *LLMRecommender {
	return &LLMRecommender{provider: provider, views: views}
}

func (r *LLMRecommender) Recommend(ctx context.Context, content string, scores detect.Scores) (*Recommendation, error) {
	prompt := fmt.Sprintf(constant.ViewRecommendationPrompt,
		joinViews(r.views),
		formatScores(scores),
		excerpt(content, maxExcerptRunes),
	)

	out, err := llm.GenerateStructured(ctx, r.provider, prompt, llm.WithMaxTokens(200))
	if err != nil {
		return nil, fmt.Errorf("view recommendation: %w", err)
	}

	primary, _ := out["primary_view"].(string)
	if primary == "" {
		return nil, fmt.Errorf("view recommendation: %w: missing primary_view", llm.ErrMalformedJSON)
	}

	rec := &Recommendation{Primary: view.Kind(strings.ToLower(primary)), Method: MethodAI}
	if raw, ok := out["enabled_views"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				rec.Enabled = append(rec.Enabled, view.Kind(strings.ToLower(s)))
			}
		}
	}
	return rec, nil
}

func joinViews(views []view.Kind) string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

func formatScores(scores detect.Scores) string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("- %s: %.2f", k, scores[view.Kind(k)])
	}
	return strings.Join(lines, "\n")
}

func excerpt(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateStructured asks the provider for a JSON object and decodes it.
// Models often wrap JSON in prose or markdown fences, so the outermost
// {...} span is extracted before decoding.
func GenerateStructured(ctx context.Context, provider LLMProvider, prompt string, options ...Option) (map[string]interface{}, error) {
	opts := append([]Option{WithJSONMode(), WithTemperature(0.2)}, options...)
	raw, err := provider.Generate(ctx, prompt, opts...)
	if err != nil {
		return nil, err
	}
	return ParseJSONObject(raw)
}

// GenerateText returns the trimmed text answer, failing on empty output.
func GenerateText(ctx context.Context, provider LLMProvider, prompt string, options ...Option) (string, error) {
	raw, err := provider.Generate(ctx, prompt, options...)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func ParseJSONObject(raw string) (map[string]interface{}, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no object found", ErrMalformedJSON)
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	return out, nil
}

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"ai-docview-be/pkg/llm"
	"ai-docview-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Talks to a real local Ollama. Set OLLAMA_INTEGRATION=1 to run.
func TestOllamaStructuredOutput(t *testing.T) {
	if os.Getenv("OLLAMA_INTEGRATION") == "" {
		t.Skip("Skipping integration test: OLLAMA_INTEGRATION not set")
	}

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "qwen2.5"
	}

	provider := ollama.NewOllamaProvider(baseURL, model, 2*time.Minute)
	out, err := llm.GenerateStructured(context.Background(), provider,
		`Return only a JSON object {"answer": <the sum of 2 and 3 as a number>}.`)
	require.NoError(t, err)
	assert.Contains(t, out, "answer")
}

package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error
	opts  Options
}

func (s *stubProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	return s.Generate(ctx, "", options...)
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	for _, o := range options {
		o(&s.opts)
	}
	return s.reply, s.err
}

func TestParseJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantKey string
		wantErr error
	}{
		{name: "plain", raw: `{"primary_view":"qa"}`, wantKey: "primary_view"},
		{name: "fenced", raw: "```json\n{\"items\": [1,2]}\n```", wantKey: "items"},
		{name: "prose around", raw: "Here you go: {\"a\": {\"b\": 1}} hope it helps", wantKey: "a"},
		{name: "empty", raw: "   ", wantErr: ErrEmptyResponse},
		{name: "no object", raw: "sorry, I can't", wantErr: ErrMalformedJSON},
		{name: "broken", raw: `{"a": }`, wantErr: ErrMalformedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ParseJSONObject(tt.raw)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantKey)
		})
	}
}

func TestGenerateStructured_SetsJSONMode(t *testing.T) {
	p := &stubProvider{reply: `{"ok": true}`}
	out, err := GenerateStructured(context.Background(), p, "prompt")
	require.NoError(t, err)
	assert.Equal(t, true, out["ok"])
	assert.True(t, p.opts.JSONMode)
}

func TestGenerateStructured_PropagatesProviderError(t *testing.T) {
	perr := &ProviderError{Provider: "ollama", StatusCode: 503, Body: "busy"}
	p := &stubProvider{err: perr}
	_, err := GenerateStructured(context.Background(), p, "prompt")

	var target *ProviderError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 503, target.StatusCode)
}

func TestGenerateText(t *testing.T) {
	_, err := GenerateText(context.Background(), &stubProvider{reply: "\n "}, "p")
	assert.True(t, errors.Is(err, ErrEmptyResponse))

	text, err := GenerateText(context.Background(), &stubProvider{reply: " hi \n"}, "p")
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

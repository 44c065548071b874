package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-docview-be/pkg/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEmbedder map[string][]float32

func (m mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, ok := m[text]
	if !ok {
		return nil, errors.New("unknown text")
	}
	return v, nil
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 0}))
}

func TestSimilarities(t *testing.T) {
	e := mapEmbedder{
		"answer": {1, 0},
		"same":   {1, 0},
		"far":    {-1, 0},
	}
	segs := []view.Segment{{ID: "seg-0", Text: "same"}, {ID: "seg-1", Text: "far"}}

	got, err := Similarities(context.Background(), e, "answer", segs)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.Equal(t, 0.0, got[1])

	got, err = Similarities(context.Background(), e, "answer", nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = Similarities(context.Background(), e, "answer", []view.Segment{{ID: "seg-9", Text: "missing"}})
	assert.ErrorContains(t, err, "seg-9")
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		_ = json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	vec, err := NewOllamaEmbedder(srv.URL, "", time.Second).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
}

func TestOllamaEmbedder_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaEmbedder(srv.URL, "x", time.Second).Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "404")
}

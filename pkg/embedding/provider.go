package embedding

import "context"

// Embedder turns text into a unit-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

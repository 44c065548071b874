package embedding

import (
	"context"
	"fmt"
	"math"

	"ai-docview-be/pkg/view"
)

// Cosine returns the cosine similarity of a and b, 0 when either is empty or
// the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Similarities scores response against each cited segment. Negative cosines
// count as unrelated and are floored at 0.
func Similarities(ctx context.Context, e Embedder, response string, cited []view.Segment) ([]float64, error) {
	if len(cited) == 0 || response == "" {
		return nil, nil
	}

	target, err := e.Embed(ctx, response)
	if err != nil {
		return nil, fmt.Errorf("embed response: %w", err)
	}

	out := make([]float64, 0, len(cited))
	for _, seg := range cited {
		vec, err := e.Embed(ctx, seg.Text)
		if err != nil {
			return nil, fmt.Errorf("embed segment %s: %w", seg.ID, err)
		}
		out = append(out, math.Max(0, Cosine(target, vec)))
	}
	return out, nil
}

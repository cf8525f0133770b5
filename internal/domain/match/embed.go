package match

import (
	"context"
	"math"
)

// Embedder produces sentence embeddings for semantic similarity. The model
// behind it may be slow to load; the Matcher calls it lazily and caches
// vocabulary vectors for its own lifetime.
type Embedder interface {
	// Embed returns one vector per input text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// cosine returns the cosine similarity of two vectors, 0 when either has
// zero magnitude or lengths differ.
func cosine(a, b []float32) float64 {
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

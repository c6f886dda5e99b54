// Package embed turns text into fixed-dimension vectors via a Genkit
// embedder.
package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// ErrEmptyResponse indicates the model returned no embedding for an input.
var ErrEmptyResponse = errors.New("empty embedding response")

// Embedder converts texts into vectors of a fixed dimension.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the length of every vector Embed returns.
	Dimension() int
}

// GenkitEmbedder adapts an ai.Embedder to the Embedder interface, pinning
// the output dimensionality so stored vectors stay comparable across model
// defaults (Matryoshka truncation).
type GenkitEmbedder struct {
	embedder ai.Embedder
	dim      int32
}

// NewGenkit wraps a Genkit embedder. dim must match the vector column the
// chunks are stored in.
func NewGenkit(embedder ai.Embedder, dim int) (*GenkitEmbedder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	return &GenkitEmbedder{embedder: embedder, dim: int32(dim)}, nil
}

func (g *GenkitEmbedder) Dimension() int { return int(g.dim) }

func (g *GenkitEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, t := range texts {
		docs[i] = ai.DocumentFromText(t, nil)
	}

	dim := g.dim
	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   docs,
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			ErrEmptyResponse, len(resp.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if len(e.Embedding) == 0 {
			return nil, fmt.Errorf("%w: text %d", ErrEmptyResponse, i)
		}
		vecs[i] = e.Embedding
	}
	return vecs, nil
}

// Package retrieve answers similarity queries against the chunk store.
package retrieve

import (
	"context"
	"errors"
	"fmt"

	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/vector"
)

const (
	// DefaultTopK is the number of chunks retrieved when the caller
	// does not say otherwise.
	DefaultTopK = 5

	// MaxTopK caps a caller-supplied topK.
	MaxTopK = 20
)

var (
	// ErrEmbeddingFailed wraps failures of the query embedding call.
	ErrEmbeddingFailed = errors.New("query embedding failed")

	// ErrStoreUnavailable wraps failures of the vector store query.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrEmptyQuery indicates the query text is empty.
	ErrEmptyQuery = errors.New("empty query")
)

// Result is one retrieved chunk with its similarity score.
type Result struct {
	Text       string  `json:"text"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// Embedder turns the query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is the similarity query surface of the chunk store.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int) ([]vector.Match, error)
}

// Retriever embeds a query and returns its nearest chunks.
type Retriever struct {
	embedder Embedder
	store    Searcher
	logger   log.Logger
}

// New builds a Retriever.
func New(embedder Embedder, store Searcher, logger log.Logger) (*Retriever, error) {
	if embedder == nil || store == nil {
		return nil, fmt.Errorf("embedder and store are required")
	}
	return &Retriever{embedder: embedder, store: store, logger: logger}, nil
}

// Retrieve returns up to topK chunks nearest to query, best first, in the
// store's own ranking. topK falls back to DefaultTopK when non-positive
// and is capped at MaxTopK. Fewer than topK results is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vecs) == 0 {
		return nil, ErrEmbeddingFailed
	}

	matches, err := r.store.Search(ctx, vecs[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Text:       m.Content,
			Title:      m.Title,
			URL:        m.SourceURL,
			ChunkIndex: m.ChunkIndex,
			Score:      m.Score,
		}
	}

	r.logger.Debug("query retrieved", "topK", topK, "matches", len(results))
	return results, nil
}

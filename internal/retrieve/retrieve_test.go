package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/vector"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (e stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vec
	}
	return out, nil
}

type stubSearcher struct {
	matches  []vector.Match
	err      error
	lastTopK int
}

func (s *stubSearcher) Search(_ context.Context, _ []float32, topK int) ([]vector.Match, error) {
	s.lastTopK = topK
	if s.err != nil {
		return nil, s.err
	}
	if topK < len(s.matches) {
		return s.matches[:topK], nil
	}
	return s.matches, nil
}

func matches() []vector.Match {
	return []vector.Match{
		{ID: "a_0", SourceURL: "https://example.com/a", Title: "A", Content: "first", ChunkIndex: 0, Score: 0.93},
		{ID: "b_2", SourceURL: "https://example.com/b", Title: "B", Content: "second", ChunkIndex: 2, Score: 0.81},
	}
}

func TestRetrievePassesThroughStoreOrder(t *testing.T) {
	store := &stubSearcher{matches: matches()}
	r, err := New(stubEmbedder{vec: []float32{1, 0}}, store, log.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := r.Retrieve(context.Background(), "creative economy", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].URL != "https://example.com/a" || got[0].Score != 0.93 {
		t.Errorf("results[0] = %+v, want store's best match first", got[0])
	}
	if got[1].Text != "second" || got[1].ChunkIndex != 2 {
		t.Errorf("results[1] = %+v, metadata not passed through", got[1])
	}
}

func TestRetrieveTopKDefaults(t *testing.T) {
	store := &stubSearcher{matches: matches()}
	r, _ := New(stubEmbedder{vec: []float32{1}}, store, log.NewNop())

	if _, err := r.Retrieve(context.Background(), "q", 0); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.lastTopK != DefaultTopK {
		t.Errorf("topK = %d, want default %d", store.lastTopK, DefaultTopK)
	}

	if _, err := r.Retrieve(context.Background(), "q", 500); err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.lastTopK != MaxTopK {
		t.Errorf("topK = %d, want cap %d", store.lastTopK, MaxTopK)
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r, _ := New(stubEmbedder{vec: []float32{1}}, &stubSearcher{}, log.NewNop())
	if _, err := r.Retrieve(context.Background(), "", 5); !errors.Is(err, ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	r, _ := New(stubEmbedder{err: errors.New("quota")}, &stubSearcher{}, log.NewNop())
	_, err := r.Retrieve(context.Background(), "q", 5)
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Fatalf("err = %v, want ErrEmbeddingFailed", err)
	}
}

func TestRetrieveStoreFailure(t *testing.T) {
	store := &stubSearcher{err: errors.New("connection refused")}
	r, _ := New(stubEmbedder{vec: []float32{1}}, store, log.NewNop())
	_, err := r.Retrieve(context.Background(), "q", 5)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestRetrieveFewerThanTopK(t *testing.T) {
	store := &stubSearcher{matches: matches()[:1]}
	r, _ := New(stubEmbedder{vec: []float32{1}}, store, log.NewNop())
	got, err := r.Retrieve(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}

package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/communique/acebot/internal/history"
	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/retrieve"
)

type stubRetriever struct {
	results []retrieve.Result
	err     error
}

func (r stubRetriever) Retrieve(_ context.Context, _ string, _ int) ([]retrieve.Result, error) {
	return r.results, r.err
}

type stubGenerator struct {
	text       string
	err        error
	lastPrompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	return g.text, g.err
}

func results() []retrieve.Result {
	return []retrieve.Result{
		{
			Text:  strings.Repeat("Nollywood produced over 2500 films last year. ", 10),
			Title: "Film Industry Report",
			URL:   "https://example.com/blog/film",
			Score: 0.91,
		},
		{
			Text:  "Annual report on African music streaming.",
			Title: "Music Report",
			URL:   "https://example.com/reports/music.pdf",
			Score: 0.85,
		},
	}
}

func newService(t *testing.T, r Retriever, g Generator) (*Service, *history.Store) {
	t.Helper()
	hist := history.New(10, 100)
	s, err := New(r, hist, g, 5, log.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, hist
}

func TestAnswerReturnsSources(t *testing.T) {
	gen := &stubGenerator{text: "Nollywood is booming."}
	s, _ := newService(t, stubRetriever{results: results()}, gen)

	resp, err := s.Answer(context.Background(), "How is Nollywood doing?", "s1")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Text != "Nollywood is booming." {
		t.Errorf("Text = %q", resp.Text)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(resp.Sources))
	}

	first := resp.Sources[0]
	if first.Source != "Film Industry Report" || first.Type != "article" {
		t.Errorf("sources[0] = %+v", first)
	}
	if len([]rune(first.Snippet)) != 200 {
		t.Errorf("snippet length = %d, want 200", len([]rune(first.Snippet)))
	}
	if resp.Sources[1].Type != "pdf" {
		t.Errorf("sources[1].Type = %q, want pdf", resp.Sources[1].Type)
	}
}

func TestAnswerPromptIncludesContextAndHistory(t *testing.T) {
	gen := &stubGenerator{text: "answer"}
	s, hist := newService(t, stubRetriever{results: results()}, gen)

	hist.Append("s1", history.Exchange{Question: "earlier question", Answer: "earlier answer"})

	if _, err := s.Answer(context.Background(), "follow-up?", "s1"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	p := gen.lastPrompt
	for _, want := range []string{
		"creative economy",
		"Film Industry Report",
		"earlier question",
		"earlier answer",
		"Question: follow-up?",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnswerRecordsExchange(t *testing.T) {
	gen := &stubGenerator{text: "recorded"}
	s, hist := newService(t, stubRetriever{results: results()}, gen)

	if _, err := s.Answer(context.Background(), "q1", "s1"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	got := hist.Get("s1")
	if len(got) != 1 || got[0].Question != "q1" || got[0].Answer != "recorded" {
		t.Errorf("history = %+v", got)
	}
}

func TestAnswerZeroMatches(t *testing.T) {
	gen := &stubGenerator{text: "best effort"}
	s, _ := newService(t, stubRetriever{}, gen)

	resp, err := s.Answer(context.Background(), "obscure question", "s1")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Text != "best effort" {
		t.Errorf("Text = %q", resp.Text)
	}
	if len(resp.Sources) != 0 {
		t.Errorf("got %d sources, want 0", len(resp.Sources))
	}
	if !strings.Contains(gen.lastPrompt, "no matching documents") {
		t.Error("prompt should note the empty context")
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	s, _ := newService(t, stubRetriever{}, &stubGenerator{text: "x"})
	if _, err := s.Answer(context.Background(), "  ", "s1"); !errors.Is(err, retrieve.ErrEmptyQuery) {
		t.Fatalf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestAnswerGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model down")}
	s, hist := newService(t, stubRetriever{results: results()}, gen)

	_, err := s.Answer(context.Background(), "q", "s1")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if len(hist.Get("s1")) != 0 {
		t.Error("failed generation must not be recorded in history")
	}
}

func TestAnswerRetrievalFailure(t *testing.T) {
	s, _ := newService(t, stubRetriever{err: retrieve.ErrStoreUnavailable}, &stubGenerator{text: "x"})
	if _, err := s.Answer(context.Background(), "q", "s1"); !errors.Is(err, retrieve.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

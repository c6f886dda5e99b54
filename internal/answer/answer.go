// Package answer generates grounded answers to user questions from
// retrieved chunks and recent conversation history.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/communique/acebot/internal/history"
	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/retrieve"
)

// snippetLength bounds the per-source preview returned to clients.
const snippetLength = 200

// systemPrompt frames every generation. Context and history are appended
// per request.
const systemPrompt = `You are an expert assistant specializing in Africa's creative economy,
drawing insights from Communiqué's African Creative Economy Database and related resources.

Provide detailed, accurate information about Africa's creative industries including:
- Film & TV (Nollywood, Riverwood, production houses, streaming platforms)
- Music (labels, festivals, streaming platforms)
- Fashion (designers, brands, African styles)
- Gaming (developers, esports, platforms)
- Creator Economy (digital platforms, tools)
- Media (publishers, digital outlets)
- Creative Arts (galleries, theater, art collectives)
- Cultural Heritage (museums, heritage institutions)

Include relevant statistics, organizations, investors, events, and policy insights when available.
If you mention specific entities or data, cite the source from the context.`

// ErrGenerationFailed wraps failures of the generation call.
var ErrGenerationFailed = errors.New("answer generation failed")

// Source describes one chunk the answer drew on.
type Source struct {
	Source  string `json:"source"`
	URL     string `json:"url"`
	Type    string `json:"type"`
	Snippet string `json:"snippet"`
}

// Response is a generated answer with its supporting sources.
type Response struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Retriever supplies the chunks an answer is grounded on.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]retrieve.Result, error)
}

// History supplies and records per-session conversation turns.
type History interface {
	Append(sessionID string, ex history.Exchange)
	Get(sessionID string) []history.Exchange
}

// Generator produces the answer text for a fully rendered prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service answers questions over the indexed corpus.
type Service struct {
	retriever Retriever
	hist      History
	generator Generator
	topK      int
	logger    log.Logger
}

// New builds an answer Service. topK falls back to the retrieval default
// when non-positive.
func New(retriever Retriever, hist History, generator Generator, topK int, logger log.Logger) (*Service, error) {
	if retriever == nil || hist == nil || generator == nil {
		return nil, fmt.Errorf("retriever, history and generator are required")
	}
	if topK <= 0 {
		topK = retrieve.DefaultTopK
	}
	return &Service{
		retriever: retriever,
		hist:      hist,
		generator: generator,
		topK:      topK,
		logger:    logger,
	}, nil
}

// Answer retrieves context for question, generates an answer and records
// the exchange under sessionID. An empty index yields a best-effort answer
// with no sources rather than an error.
func (s *Service) Answer(ctx context.Context, question, sessionID string) (Response, error) {
	if strings.TrimSpace(question) == "" {
		return Response{}, retrieve.ErrEmptyQuery
	}

	results, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return Response{}, err
	}

	prompt := s.renderPrompt(question, sessionID, results)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Response{}, fmt.Errorf("%w: empty model response", ErrGenerationFailed)
	}

	s.hist.Append(sessionID, history.Exchange{Question: question, Answer: text})

	resp := Response{Text: text, Sources: make([]Source, 0, len(results))}
	for _, r := range results {
		resp.Sources = append(resp.Sources, Source{
			Source:  r.Title,
			URL:     r.URL,
			Type:    sourceType(r.URL),
			Snippet: snippet(r.Text),
		})
	}

	s.logger.Info("question answered",
		"session", sessionID, "sources", len(resp.Sources))
	return resp, nil
}

func (s *Service) renderPrompt(question, sessionID string, results []retrieve.Result) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	b.WriteString("\n\nContext from the database:\n")
	if len(results) == 0 {
		b.WriteString("(no matching documents)\n")
	}
	for _, r := range results {
		fmt.Fprintf(&b, "[Source: %s (%s)]\n%s\n\n", r.Title, r.URL, r.Text)
	}

	if past := s.hist.Get(sessionID); len(past) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, ex := range past {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", ex.Question, ex.Answer)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\nAnswer:", question)
	return b.String()
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength])
}

func sourceType(url string) string {
	if strings.HasSuffix(strings.ToLower(url), ".pdf") {
		return "pdf"
	}
	return "article"
}

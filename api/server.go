// Package api provides the JSON HTTP surface over the ingest and chat
// pipelines.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/communique/acebot/internal/answer"
	"github.com/communique/acebot/internal/extract"
	"github.com/communique/acebot/internal/history"
	"github.com/communique/acebot/internal/ingest"
	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/registry"
)

// Answerer generates answers for chat requests.
type Answerer interface {
	Answer(ctx context.Context, question, sessionID string) (answer.Response, error)
}

// Indexer runs document ingestion.
type Indexer interface {
	Ingest(ctx context.Context, url string, kind extract.Kind, force bool) (ingest.Result, error)
	BulkIngest(ctx context.Context, reqs []ingest.Request) ([]ingest.Result, error)
}

// Documents is the read side of the document registry.
type Documents interface {
	List(ctx context.Context) ([]registry.Document, error)
	Stats(ctx context.Context) (registry.Stats, error)
}

// HistoryReader exposes per-session conversation history.
type HistoryReader interface {
	Get(sessionID string) []history.Exchange
}

// Pinger reports storage reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig contains the dependencies of the HTTP server.
type ServerConfig struct {
	Logger    log.Logger
	Answerer  Answerer
	Indexer   Indexer
	Documents Documents
	History   HistoryReader
	Pinger    Pinger
}

// Server routes API requests. It implements http.Handler with the
// middleware stack applied.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Answerer == nil || cfg.Indexer == nil || cfg.Documents == nil || cfg.History == nil {
		return nil, errors.New("answerer, indexer, documents and history are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: cfg.Logger,
	}

	// Probes take no middleware.
	s.mux.HandleFunc("GET /health", handleHealth)
	s.mux.HandleFunc("GET /ready", handleReady(cfg.Pinger))

	s.mux.HandleFunc("POST /api/chat", s.handleChat(cfg.Answerer))
	s.mux.HandleFunc("POST /api/documents/add", s.handleAddDocument(cfg.Indexer))
	s.mux.HandleFunc("POST /api/documents/bulk-add", s.handleBulkAdd(cfg.Indexer))
	s.mux.HandleFunc("GET /api/documents", s.handleListDocuments(cfg.Documents))
	s.mux.HandleFunc("GET /api/stats", s.handleStats(cfg.Documents))
	s.mux.HandleFunc("GET /api/history", s.handleHistory(cfg.History))

	return s, nil
}

// ServeHTTP applies the middleware stack: recovery outermost, then
// logging, then routing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var handler http.Handler = s.mux
	handler = loggingMiddleware(s.logger)(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	handler.ServeHTTP(w, r)
}

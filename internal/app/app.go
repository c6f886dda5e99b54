// Package app assembles the configured application from its components.
package app

import (
	"context"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communique/acebot/internal/answer"
	"github.com/communique/acebot/internal/config"
	"github.com/communique/acebot/internal/crawl"
	"github.com/communique/acebot/internal/embed"
	"github.com/communique/acebot/internal/history"
	"github.com/communique/acebot/internal/ingest"
	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/registry"
	"github.com/communique/acebot/internal/retrieve"
	"github.com/communique/acebot/internal/vector"
)

// App holds every wired component plus the resources they own.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder embed.Embedder
	DBPool   *pgxpool.Pool

	Registry  *registry.Store
	Vectors   *vector.Store
	Indexer   *ingest.Indexer
	Crawler   *crawl.Crawler
	Retriever *retrieve.Retriever
	History   *history.Store
	Answerer  *answer.Service

	otelCleanup func()
	cancel      context.CancelFunc
}

// Close releases everything Setup acquired.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.cancel != nil {
		a.cancel()
	}
	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/communique/acebot/db"
	"github.com/communique/acebot/internal/answer"
	"github.com/communique/acebot/internal/config"
	"github.com/communique/acebot/internal/crawl"
	"github.com/communique/acebot/internal/embed"
	"github.com/communique/acebot/internal/extract"
	"github.com/communique/acebot/internal/fetch"
	"github.com/communique/acebot/internal/history"
	"github.com/communique/acebot/internal/ingest"
	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/observability"
	"github.com/communique/acebot/internal/registry"
	"github.com/communique/acebot/internal/retrieve"
	"github.com/communique/acebot/internal/vector"
)

// Setup creates and initializes the application. Returns an App with
// embedded cleanup; call Close to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	a := &App{Config: cfg, Logger: logger}

	// On error, release everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, aiEmbedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder, err := embed.NewGenkit(aiEmbedder, cfg.EmbeddingDimension)
	if err != nil {
		return nil, err
	}
	a.Embedder = embedder

	a.Registry, err = registry.NewStore(pool, logger)
	if err != nil {
		return nil, err
	}
	a.Vectors, err = vector.NewStore(pool, cfg.EmbeddingDimension, logger)
	if err != nil {
		return nil, err
	}

	a.Indexer, err = provideIndexer(cfg, a, logger)
	if err != nil {
		return nil, err
	}

	a.Crawler = provideCrawler(cfg, logger)

	a.Retriever, err = retrieve.New(embedder, a.Vectors, logger)
	if err != nil {
		return nil, err
	}

	a.History = history.New(cfg.HistoryWindow, cfg.HistorySessions)

	generator, err := answer.NewGenkitGenerator(g, cfg.FullModelName())
	if err != nil {
		return nil, err
	}
	a.Answerer, err = answer.New(a.Retriever, a.History, generator, cfg.RetrievalTopK, logger)
	if err != nil {
		return nil, err
	}

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	return a, nil
}

// provideOtelShutdown sets up tracing before Genkit initialization so the
// TracerProvider is ready when flows start. Disabled when no collector
// endpoint is configured.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if cfg.Otel.Endpoint == "" {
		return func() {}
	}

	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Otel.Endpoint,
		Environment: cfg.Otel.Environment,
		ServiceName: cfg.Otel.ServiceName,
	})
	if err != nil {
		logger.Warn("tracing setup failed, continuing without", "error", err)
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates the PostgreSQL connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider and
// returns the provider's embedder alongside it.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, ai.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama has no auto-discovery; models must be registered.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, ollama.Embedder(g, cfg.OllamaHost), nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
		return g, googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel), nil
	}
}

// provideIndexer assembles the ingest pipeline with per-kind fetchers.
func provideIndexer(cfg *config.Config, a *App, logger log.Logger) (*ingest.Indexer, error) {
	ing := cfg.Ingest

	fetchers := map[extract.Kind]ingest.Fetcher{
		extract.KindArticle: fetch.New(time.Duration(ing.FetchTimeoutMs)*time.Millisecond, logger),
		extract.KindPDF:     fetch.New(time.Duration(ing.PDFFetchTimeoutMs)*time.Millisecond, logger),
	}

	return ingest.New(fetchers, cfg.Extractor, a.Registry, a.Vectors, a.Embedder, ingest.Config{
		WordChunkSize:    ing.ChunkSizeWords,
		WordChunkOverlap: ing.ChunkOverlapWords,
		RuneChunkSize:    ing.ChunkSizeChars,
		RuneChunkOverlap: ing.ChunkOverlapChars,
		MinChunkChars:    ing.MinContentChars,
		BatchSize:        ing.UpsertBatchSize,
		BulkDelay:        time.Duration(ing.BulkDelayMs) * time.Millisecond,
		FetchAttempts:    2,
	}, logger)
}

// provideCrawler assembles the crawler with its pacing limiter and an
// article-timeout fetcher.
func provideCrawler(cfg *config.Config, logger log.Logger) *crawl.Crawler {
	fetcher := fetch.New(time.Duration(cfg.Ingest.FetchTimeoutMs)*time.Millisecond, logger)

	interval := time.Duration(cfg.Crawl.DelayMs) * time.Millisecond
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	return crawl.New(fetcher, limiter, logger)
}

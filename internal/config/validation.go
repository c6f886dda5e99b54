package config

import (
	"fmt"
	"log/slog"
	"os"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// Provider and API key
	switch c.Provider {
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty for provider %q",
				ErrInvalidProvider, ProviderOllama)
		}
	default:
		return fmt.Errorf("%w: %q (supported: gemini, ollama)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Embedding dimension must match what the embedder can emit; the chunk
	// index is created with this width and cannot be changed in place.
	if c.EmbeddingDimension < 1 || c.EmbeddingDimension > 4096 {
		return fmt.Errorf("%w: must be between 1 and 4096, got %d",
			ErrInvalidEmbeddingDimension, c.EmbeddingDimension)
	}

	// Chunking: stride = size - overlap must be >= 1 for both variants.
	if err := validateWindow("word", c.Ingest.ChunkSizeWords, c.Ingest.ChunkOverlapWords); err != nil {
		return err
	}
	if err := validateWindow("char", c.Ingest.ChunkSizeChars, c.Ingest.ChunkOverlapChars); err != nil {
		return err
	}
	if c.Ingest.MinContentChars < 0 {
		return fmt.Errorf("%w: min_content_chars cannot be negative, got %d",
			ErrInvalidChunking, c.Ingest.MinContentChars)
	}
	if c.Ingest.UpsertBatchSize < 1 {
		return fmt.Errorf("%w: upsert_batch_size must be at least 1, got %d",
			ErrInvalidChunking, c.Ingest.UpsertBatchSize)
	}

	// Retrieval
	if c.RetrievalTopK < 1 || c.RetrievalTopK > 20 {
		return fmt.Errorf("%w: retrieval_top_k must be between 1 and 20, got %d",
			ErrInvalidTopK, c.RetrievalTopK)
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("%w: history_window must be at least 1, got %d",
			ErrInvalidTopK, c.HistoryWindow)
	}

	// Crawl
	if c.Crawl.MaxLinks < 1 {
		return fmt.Errorf("%w: max_links must be at least 1, got %d",
			ErrInvalidCrawl, c.Crawl.MaxLinks)
	}
	if c.Crawl.DelayMs < 0 {
		return fmt.Errorf("%w: delay_ms cannot be negative, got %d",
			ErrInvalidCrawl, c.Crawl.DelayMs)
	}

	// Extractor strategy
	switch c.Extractor {
	case ExtractorHeuristic, ExtractorReadability:
	default:
		return fmt.Errorf("%w: %q (supported: heuristic, readability)",
			ErrInvalidExtractor, c.Extractor)
	}

	// PostgreSQL
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d",
			ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "acebot_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"hint", "change postgres_password before deploying")
	}

	return nil
}

// validateWindow checks one chunking variant's size/overlap pair.
func validateWindow(unit string, size, overlap int) error {
	if size < 1 {
		return fmt.Errorf("%w: %s chunk size must be at least 1, got %d",
			ErrInvalidChunking, unit, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: %s overlap cannot be negative, got %d",
			ErrInvalidChunking, unit, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: %s overlap %d must be smaller than chunk size %d",
			ErrInvalidChunking, unit, overlap, size)
	}
	return nil
}

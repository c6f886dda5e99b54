// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.acebot/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: model selection, embedder model, embedding dimension
//   - Storage: PostgreSQL connection (see storage.go)
//   - Ingest: chunking parameters, upsert batch size, fetch timeouts
//   - Crawl: page budget and request pacing
//   - Retrieval: top-k and history window
//   - Observability: optional OTLP trace export
//
// Sensitive data (passwords) are never logged; see MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbeddingDimension indicates an unusable embedding dimension.
	ErrInvalidEmbeddingDimension = errors.New("invalid embedding dimension")

	// ErrInvalidChunking indicates chunk size/overlap values that cannot
	// produce a positive stride.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidCrawl indicates crawl budget or pacing values out of range.
	ErrInvalidCrawl = errors.New("invalid crawl configuration")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidExtractor indicates an unknown article extractor strategy.
	ErrInvalidExtractor = errors.New("invalid extractor strategy")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Article extractor strategy identifiers used in Config.Extractor.
const (
	ExtractorHeuristic   = "heuristic"
	ExtractorReadability = "readability"
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation via OutputDimensionality; the pgvector schema is created
	// with Config.EmbeddingDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbeddingDimension is the vector width of the chunk index.
	DefaultEmbeddingDimension = 768
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// AI provider and model configuration
	Provider  string `mapstructure:"provider" json:"provider"` // "gemini" (default) or "ollama"
	ModelName string `mapstructure:"model_name" json:"model_name"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Embedding configuration
	EmbedderModel      string `mapstructure:"embedder_model" json:"embedder_model"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension" json:"embedding_dimension"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Ingest pipeline configuration
	Ingest IngestConfig `mapstructure:"ingest" json:"ingest"`

	// Crawl configuration
	Crawl CrawlConfig `mapstructure:"crawl" json:"crawl"`

	// Retrieval configuration
	RetrievalTopK   int `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`
	HistoryWindow   int `mapstructure:"history_window" json:"history_window"`
	HistorySessions int `mapstructure:"history_sessions" json:"history_sessions"`

	// Extractor selects the HTML article extraction strategy:
	// "heuristic" (default) or "readability".
	Extractor string `mapstructure:"extractor" json:"extractor"`

	// HTTP server address for serve mode.
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`

	// Observability configuration (see observability package)
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// IngestConfig groups chunking and upsert parameters for the ingest pipeline.
type IngestConfig struct {
	// ChunkSizeWords / ChunkOverlapWords drive the crawl-based article path.
	ChunkSizeWords    int `mapstructure:"chunk_size_words" json:"chunk_size_words"`
	ChunkOverlapWords int `mapstructure:"chunk_overlap_words" json:"chunk_overlap_words"`

	// ChunkSizeChars / ChunkOverlapChars drive the document-upload path.
	ChunkSizeChars    int `mapstructure:"chunk_size_chars" json:"chunk_size_chars"`
	ChunkOverlapChars int `mapstructure:"chunk_overlap_chars" json:"chunk_overlap_chars"`

	// MinContentChars is the extraction floor; documents with less trimmed
	// text are skipped rather than indexed.
	MinContentChars int `mapstructure:"min_content_chars" json:"min_content_chars"`

	// UpsertBatchSize bounds how many vectors accumulate before a flush.
	UpsertBatchSize int `mapstructure:"upsert_batch_size" json:"upsert_batch_size"`

	// FetchTimeoutMs / PDFFetchTimeoutMs bound the network fetch.
	FetchTimeoutMs    int `mapstructure:"fetch_timeout_ms" json:"fetch_timeout_ms"`
	PDFFetchTimeoutMs int `mapstructure:"pdf_fetch_timeout_ms" json:"pdf_fetch_timeout_ms"`

	// BulkDelayMs is the pause between documents in a bulk ingest.
	BulkDelayMs int `mapstructure:"bulk_delay_ms" json:"bulk_delay_ms"`
}

// CrawlConfig groups link-discovery parameters.
type CrawlConfig struct {
	// MaxLinks bounds the number of article links a crawl may discover.
	MaxLinks int `mapstructure:"max_links" json:"max_links"`

	// DelayMs is the pause between page fetches.
	DelayMs int `mapstructure:"delay_ms" json:"delay_ms"`
}

// OtelConfig holds optional OTLP trace export settings.
// Tracing is disabled unless Endpoint is set.
type OtelConfig struct {
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	Environment string `mapstructure:"environment" json:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".acebot")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL takes priority over individual postgres_* settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("ollama_host", "http://localhost:11434")
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("embedding_dimension", DefaultEmbeddingDimension)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "acebot")
	viper.SetDefault("postgres_password", "acebot_dev_password")
	viper.SetDefault("postgres_db_name", "acebot")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Ingest defaults: 500/50 word windows for crawled articles,
	// 1000/200 character windows for uploaded documents.
	viper.SetDefault("ingest.chunk_size_words", 500)
	viper.SetDefault("ingest.chunk_overlap_words", 50)
	viper.SetDefault("ingest.chunk_size_chars", 1000)
	viper.SetDefault("ingest.chunk_overlap_chars", 200)
	viper.SetDefault("ingest.min_content_chars", 100)
	viper.SetDefault("ingest.upsert_batch_size", 100)
	viper.SetDefault("ingest.fetch_timeout_ms", 10000)
	viper.SetDefault("ingest.pdf_fetch_timeout_ms", 30000)
	viper.SetDefault("ingest.bulk_delay_ms", 1000)

	// Crawl defaults
	viper.SetDefault("crawl.max_links", 50)
	viper.SetDefault("crawl.delay_ms", 1000)

	// Retrieval defaults
	viper.SetDefault("retrieval_top_k", 5)
	viper.SetDefault("history_window", 10)
	viper.SetDefault("history_sessions", 1000)

	// Extraction defaults
	viper.SetDefault("extractor", ExtractorHeuristic)

	// HTTP defaults
	viper.SetDefault("listen_addr", "127.0.0.1:5000")

	// Observability defaults (endpoint empty = tracing disabled)
	viper.SetDefault("otel.service_name", "acebot")
	viper.SetDefault("otel.environment", "dev")
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via viper;
// Validate() only checks its presence.
func bindEnvVariables() {
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "ACEBOT_PROVIDER")
	mustBind("model_name", "ACEBOT_MODEL_NAME")
	mustBind("ollama_host", "ACEBOT_OLLAMA_HOST")
	mustBind("embedder_model", "ACEBOT_EMBEDDER_MODEL")
	mustBind("listen_addr", "ACEBOT_LISTEN_ADDR")
	mustBind("otel.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked to prevent substring
// matching; longer secrets keep the first and last two characters.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3".
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	if c.Provider == ProviderOllama {
		return ProviderOllama + "/" + c.ModelName
	}
	return "googleai/" + c.ModelName
}

// Package ingest orchestrates the document indexing pipeline: fetch,
// extract, chunk, embed, upsert.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/communique/acebot/internal/chunk"
	"github.com/communique/acebot/internal/extract"
	"github.com/communique/acebot/internal/fetch"
	"github.com/communique/acebot/internal/log"
	"github.com/communique/acebot/internal/registry"
	"github.com/communique/acebot/internal/vector"
)

// Status classifies the outcome of one ingest.
type Status string

const (
	// StatusIndexed means every chunk of the document was written.
	StatusIndexed Status = "indexed"

	// StatusExists means the URL was already registered and force was
	// not set; nothing was re-embedded.
	StatusExists Status = "exists"

	// StatusSkipped means the document was fetched but yielded too
	// little text to index.
	StatusSkipped Status = "skipped"

	// StatusFailed means the pipeline aborted; no partial chunks remain.
	StatusFailed Status = "failed"
)

// Result reports one ingest outcome.
type Result struct {
	URL           string `json:"url"`
	Status        Status `json:"status"`
	ChunksWritten int    `json:"chunks_written"`
}

// Request is one item of a bulk ingest.
type Request struct {
	URL   string
	Kind  extract.Kind
	Force bool
}

// Fetcher retrieves the raw bytes of a document.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Registry is the document registry the pipeline dedupes against.
type Registry interface {
	Get(ctx context.Context, url string) (registry.Document, error)
	Create(ctx context.Context, url, title, sourceType string) (int64, error)
	MarkProcessed(ctx context.Context, url string, chunkCount int) error
	Delete(ctx context.Context, url string) error
}

// VectorStore receives the embedded chunks.
type VectorStore interface {
	Upsert(ctx context.Context, chunks []vector.Chunk) error
	DeleteBySource(ctx context.Context, sourceURL string) (int64, error)
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config carries the pipeline tuning knobs.
type Config struct {
	// Word windowing for HTML articles.
	WordChunkSize    int
	WordChunkOverlap int

	// Rune windowing for PDFs and other uploaded documents.
	RuneChunkSize    int
	RuneChunkOverlap int

	// MinChunkChars drops windows shorter than this many characters.
	MinChunkChars int

	// BatchSize bounds how many chunks are embedded and upserted per
	// round trip.
	BatchSize int

	// BulkDelay is the pause between documents in BulkIngest.
	BulkDelay time.Duration

	// FetchAttempts bounds fetch tries per document; only retryable
	// failures are retried.
	FetchAttempts int
}

// Indexer runs the ingest pipeline. All mutable pipeline state is scoped
// to a single Ingest call, so Indexer is safe for concurrent use.
type Indexer struct {
	fetchers  map[extract.Kind]Fetcher
	extractor func(kind extract.Kind) (extract.Extractor, error)
	reg       Registry
	store     VectorStore
	embedder  Embedder
	cfg       Config
	logger    log.Logger
}

// New builds an Indexer. fetchers must cover every kind the caller will
// ingest; articleStrategy selects the HTML extraction heuristic.
func New(fetchers map[extract.Kind]Fetcher, articleStrategy string, reg Registry,
	store VectorStore, embedder Embedder, cfg Config, logger log.Logger) (*Indexer, error) {
	if reg == nil || store == nil || embedder == nil {
		return nil, fmt.Errorf("registry, store and embedder are required")
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.FetchAttempts < 1 {
		cfg.FetchAttempts = 1
	}
	if cfg.WordChunkOverlap >= cfg.WordChunkSize || cfg.RuneChunkOverlap >= cfg.RuneChunkSize {
		return nil, chunk.ErrInvalidOverlap
	}
	return &Indexer{
		fetchers: fetchers,
		extractor: func(kind extract.Kind) (extract.Extractor, error) {
			return extract.ForKind(kind, articleStrategy)
		},
		reg:      reg,
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ChunkID derives the stable vector id for one chunk of a source URL.
func ChunkID(url string, index int) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%s_%d", hex.EncodeToString(sum[:16]), index)
}

// Ingest runs the full pipeline for one URL. A URL already registered
// short-circuits with StatusExists unless force is set; force deletes the
// document's existing vectors before re-embedding. Either every chunk of
// the document is written and the registry row marked processed, or no
// chunks remain.
func (ix *Indexer) Ingest(ctx context.Context, url string, kind extract.Kind, force bool) (Result, error) {
	res := Result{URL: url, Status: StatusFailed}

	createdHere, err := ix.register(ctx, url, kind, force)
	if err != nil {
		if errors.Is(err, registry.ErrDuplicate) || errors.Is(err, errAlreadyIndexed) {
			res.Status = StatusExists
			return res, nil
		}
		return res, err
	}

	body, err := ix.fetchWithRetry(ctx, url, kind)
	if err != nil {
		ix.rollbackRegistry(ctx, url, createdHere)
		return res, fmt.Errorf("fetching %s: %w", url, err)
	}

	extractor, err := ix.extractor(kind)
	if err != nil {
		ix.rollbackRegistry(ctx, url, createdHere)
		return res, err
	}
	extracted, err := extractor.Extract(body, url)
	if err != nil {
		ix.rollbackRegistry(ctx, url, createdHere)
		if errors.Is(err, extract.ErrEmptyContent) {
			ix.logger.Info("document below content floor, skipping", "url", url)
			res.Status = StatusSkipped
			return res, nil
		}
		return res, fmt.Errorf("extracting %s: %w", url, err)
	}

	texts, err := ix.chunksFor(kind, extracted.Text)
	if err != nil {
		ix.rollbackRegistry(ctx, url, createdHere)
		return res, err
	}
	if len(texts) == 0 {
		ix.rollbackRegistry(ctx, url, createdHere)
		res.Status = StatusSkipped
		return res, nil
	}

	written, err := ix.embedAndStore(ctx, url, extracted.Title, texts)
	if err != nil {
		// Partial chunks must not survive a failed document.
		if _, derr := ix.store.DeleteBySource(ctx, url); derr != nil {
			ix.logger.Error("cleanup of partial chunks failed",
				"url", url, "error", derr)
		}
		ix.rollbackRegistry(ctx, url, createdHere)
		return res, err
	}

	if err := ix.reg.MarkProcessed(ctx, url, written); err != nil {
		return res, fmt.Errorf("marking %s processed: %w", url, err)
	}

	ix.logger.Info("document indexed", "url", url, "kind", kind, "chunks", written)
	res.Status = StatusIndexed
	res.ChunksWritten = written
	return res, nil
}

// BulkIngest processes requests strictly in sequence with a fixed delay
// between documents. Per-item failures are recorded in the results, not
// returned; only context cancellation stops the batch early.
func (ix *Indexer) BulkIngest(ctx context.Context, reqs []Request) ([]Result, error) {
	results := make([]Result, 0, len(reqs))
	for i, req := range reqs {
		if i > 0 && ix.cfg.BulkDelay > 0 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(ix.cfg.BulkDelay):
			}
		}

		res, err := ix.Ingest(ctx, req.URL, req.Kind, req.Force)
		if err != nil {
			if ctx.Err() != nil {
				return append(results, res), ctx.Err()
			}
			ix.logger.Warn("bulk item failed", "url", req.URL, "error", err)
		}
		results = append(results, res)
	}
	return results, nil
}

// errAlreadyIndexed signals the dedupe short-circuit internally.
var errAlreadyIndexed = errors.New("already indexed")

// register performs the dedupe check and registers the URL if new. It
// reports whether this call created the registry row.
func (ix *Indexer) register(ctx context.Context, url string, kind extract.Kind, force bool) (bool, error) {
	_, err := ix.reg.Get(ctx, url)
	switch {
	case err == nil:
		if !force {
			return false, errAlreadyIndexed
		}
		// Re-index: drop the old vectors before writing new ones so
		// a shrinking document leaves no stale tail chunks behind.
		if _, err := ix.store.DeleteBySource(ctx, url); err != nil {
			return false, fmt.Errorf("clearing old chunks for %s: %w", url, err)
		}
		return false, nil
	case errors.Is(err, registry.ErrNotFound):
		if _, err := ix.reg.Create(ctx, url, "", string(kind)); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, fmt.Errorf("checking registry for %s: %w", url, err)
	}
}

// rollbackRegistry removes a registry row this call created, so a failed
// or skipped ingest does not block a later retry with StatusExists.
func (ix *Indexer) rollbackRegistry(ctx context.Context, url string, createdHere bool) {
	if !createdHere {
		return
	}
	if err := ix.reg.Delete(ctx, url); err != nil {
		ix.logger.Error("registry rollback failed", "url", url, "error", err)
	}
}

// fetchWithRetry fetches url, retrying transient failures (network,
// timeout, 5xx) up to the configured attempt bound. 4xx failures are
// never retried.
func (ix *Indexer) fetchWithRetry(ctx context.Context, url string, kind extract.Kind) ([]byte, error) {
	fetcher, ok := ix.fetchers[kind]
	if !ok {
		return nil, fmt.Errorf("no fetcher for kind %q", kind)
	}

	var lastErr error
	for attempt := 1; attempt <= ix.cfg.FetchAttempts; attempt++ {
		body, err := fetcher.Fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var fe *fetch.Error
		if !errors.As(err, &fe) || !fe.Retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ix.logger.Warn("fetch attempt failed",
			"url", url, "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

// chunksFor windows the extracted text: articles by words, documents by
// runes.
func (ix *Indexer) chunksFor(kind extract.Kind, text string) ([]string, error) {
	if kind == extract.KindArticle {
		return chunk.Words(text, ix.cfg.WordChunkSize, ix.cfg.WordChunkOverlap, ix.cfg.MinChunkChars)
	}
	return chunk.Runes(text, ix.cfg.RuneChunkSize, ix.cfg.RuneChunkOverlap, ix.cfg.MinChunkChars)
}

// embedAndStore embeds chunk texts and upserts them in batches, flushing
// when a batch fills or the source is exhausted.
func (ix *Indexer) embedAndStore(ctx context.Context, url, title string, texts []string) (int, error) {
	written := 0
	for start := 0; start < len(texts); start += ix.cfg.BatchSize {
		end := min(start+ix.cfg.BatchSize, len(texts))
		batch := texts[start:end]

		vecs, err := ix.embedder.Embed(ctx, batch)
		if err != nil {
			return written, fmt.Errorf("embedding chunks %d-%d of %s: %w", start, end-1, url, err)
		}

		chunks := make([]vector.Chunk, len(batch))
		for i, text := range batch {
			idx := start + i
			chunks[i] = vector.Chunk{
				ID:         ChunkID(url, idx),
				SourceURL:  url,
				Title:      title,
				Content:    text,
				ChunkIndex: idx,
				Embedding:  vecs[i],
			}
		}
		if err := ix.store.Upsert(ctx, chunks); err != nil {
			return written, fmt.Errorf("upserting chunks %d-%d of %s: %w", start, end-1, url, err)
		}
		written += len(chunks)
	}
	return written, nil
}

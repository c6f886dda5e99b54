// Package vector stores and searches text chunks with pgvector.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ErrDimensionMismatch indicates a chunk's embedding length differs from
// the store's configured dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

const upsertChunkSQL = `INSERT INTO chunks (id, source_url, title, content, chunk_index, embedding)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		source_url = EXCLUDED.source_url,
		title = EXCLUDED.title,
		content = EXCLUDED.content,
		chunk_index = EXCLUDED.chunk_index,
		embedding = EXCLUDED.embedding,
		updated_at = now()`

// searchChunksSQL orders by cosine distance; score is cosine similarity.
const searchChunksSQL = `SELECT id, source_url, title, content, chunk_index,
		1 - (embedding <=> $1) AS score
	FROM chunks
	ORDER BY embedding <=> $1
	LIMIT $2`

const deleteBySourceSQL = `DELETE FROM chunks WHERE source_url = $1`

const countBySourceSQL = `SELECT count(*) FROM chunks WHERE source_url = $1`

const countChunksSQL = `SELECT count(*) FROM chunks`

// Chunk is one embedded slice of a source document.
type Chunk struct {
	ID         string
	SourceURL  string
	Title      string
	Content    string
	ChunkIndex int
	Embedding  []float32
}

// Match is a search result with its cosine similarity in [-1, 1].
type Match struct {
	ID         string
	SourceURL  string
	Title      string
	Content    string
	ChunkIndex int
	Score      float64
}

// Store persists chunks in PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	dim    int
	logger *slog.Logger
}

// NewStore creates a chunk Store. dim is the embedding dimension every
// stored chunk must carry.
func NewStore(db querier, dim int, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, dim: dim, logger: logger}, nil
}

// Upsert writes chunks in a single batch round trip. Either every chunk in
// the batch lands or none does: the batch runs in an implicit transaction.
func (s *Store) Upsert(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if len(c.Embedding) != s.dim {
			return fmt.Errorf("%w: chunk %s has %d, store has %d",
				ErrDimensionMismatch, c.ID, len(c.Embedding), s.dim)
		}
	}

	start := time.Now()
	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(upsertChunkSQL,
			c.ID, c.SourceURL, c.Title, c.Content, c.ChunkIndex,
			pgvector.NewVector(c.Embedding))
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()
	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting chunk batch: %w", err)
		}
	}

	s.logger.Debug("chunk batch upserted",
		"count", len(chunks), "elapsed", time.Since(start))
	return nil
}

// Search returns the topK chunks nearest to the query embedding, best
// first. Fewer than topK rows come back when the table is small.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int) ([]Match, error) {
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("%w: query has %d, store has %d",
			ErrDimensionMismatch, len(embedding), s.dim)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("invalid topK %d", topK)
	}

	rows, err := s.db.Query(ctx, searchChunksSQL, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.SourceURL, &m.Title, &m.Content,
			&m.ChunkIndex, &m.Score); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}
	return matches, nil
}

// DeleteBySource removes every chunk of one source document and reports
// how many rows went away.
func (s *Store) DeleteBySource(ctx context.Context, sourceURL string) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteBySourceSQL, sourceURL)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks for %s: %w", sourceURL, err)
	}
	return tag.RowsAffected(), nil
}

// CountBySource reports how many chunks one source document has.
func (s *Store) CountBySource(ctx context.Context, sourceURL string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, countBySourceSQL, sourceURL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks for %s: %w", sourceURL, err)
	}
	return n, nil
}

// Count reports the total number of stored chunks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, countChunksSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

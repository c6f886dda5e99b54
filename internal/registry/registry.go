// Package registry tracks source documents by URL and their processed
// state.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	// ErrNotFound indicates no document is registered under the URL.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate indicates the URL is already registered.
	ErrDuplicate = errors.New("document already registered")
)

const documentCols = `id, url, title, source_type, processed, chunk_count, created_at, updated_at`

const getDocumentSQL = `SELECT ` + documentCols + ` FROM documents WHERE url = $1`

const createDocumentSQL = `INSERT INTO documents (url, title, source_type)
	VALUES ($1, $2, $3)
	ON CONFLICT (url) DO NOTHING
	RETURNING id`

const markProcessedSQL = `UPDATE documents
	SET processed = TRUE, chunk_count = $2, updated_at = now()
	WHERE url = $1`

const deleteDocumentSQL = `DELETE FROM documents WHERE url = $1`

const listDocumentsSQL = `SELECT ` + documentCols + ` FROM documents ORDER BY created_at DESC`

const statsSQL = `SELECT count(*), count(*) FILTER (WHERE processed) FROM documents`

// Document is one registered source URL.
type Document struct {
	ID         int64
	URL        string
	Title      string
	SourceType string
	Processed  bool
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Stats summarizes the registry.
type Stats struct {
	Total     int64
	Processed int64
}

// Store persists the document registry in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     querier
	logger *slog.Logger
}

// NewStore creates a registry Store.
func NewStore(db querier, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}, nil
}

// Get returns the document registered under url, or ErrNotFound.
func (s *Store) Get(ctx context.Context, url string) (Document, error) {
	var d Document
	err := s.db.QueryRow(ctx, getDocumentSQL, url).Scan(
		&d.ID, &d.URL, &d.Title, &d.SourceType, &d.Processed,
		&d.ChunkCount, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if err != nil {
		return Document{}, fmt.Errorf("getting document %s: %w", url, err)
	}
	return d, nil
}

// Create registers a URL with processed=false. Returns ErrDuplicate if the
// URL is already registered.
func (s *Store) Create(ctx context.Context, url, title, sourceType string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, createDocumentSQL, url, title, sourceType).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrDuplicate, url)
	}
	if err != nil {
		return 0, fmt.Errorf("creating document %s: %w", url, err)
	}
	return id, nil
}

// MarkProcessed flips the processed flag and records the chunk count once
// every chunk of the document has been written.
func (s *Store) MarkProcessed(ctx context.Context, url string, chunkCount int) error {
	tag, err := s.db.Exec(ctx, markProcessedSQL, url, chunkCount)
	if err != nil {
		return fmt.Errorf("marking %s processed: %w", url, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return nil
}

// Delete removes the registration for url. Deleting an unknown URL is a
// no-op.
func (s *Store) Delete(ctx context.Context, url string) error {
	if _, err := s.db.Exec(ctx, deleteDocumentSQL, url); err != nil {
		return fmt.Errorf("deleting document %s: %w", url, err)
	}
	return nil
}

// List returns all registered documents, newest first.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.Query(ctx, listDocumentsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.URL, &d.Title, &d.SourceType,
			&d.Processed, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	return docs, nil
}

// Stats reports the total and processed document counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(ctx, statsSQL).Scan(&st.Total, &st.Processed); err != nil {
		return Stats{}, fmt.Errorf("reading registry stats: %w", err)
	}
	return st, nil
}

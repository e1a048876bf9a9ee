// Package vectorstore persists embedded document chunks and serves
// nearest-neighbor retrieval for the query pipeline.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrEmbedderMismatch is returned when the persisted index was built with a
	// different embedding configuration than the one supplied at open time.
	// Searching across mismatched embedding spaces yields meaningless scores,
	// so opening fails loudly instead.
	ErrEmbedderMismatch = errors.New("embedding configuration does not match persisted index")
)

// Embedder generates vector embeddings from text.
//
// The same embedder configuration must be used when a store is written and
// when it is queried; Fingerprint identifies that configuration so the store
// can enforce the match.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple passages.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Fingerprint identifies the embedding configuration (provider + model).
	Fingerprint() string
}

// Document is a chunk to be stored in the vector index.
type Document struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Content is the chunk text.
	Content string

	// Metadata carries the chunk provenance: source, chunk_num, category.
	Metadata map[string]interface{}
}

// SearchResult is one retrieved chunk with its similarity score.
type SearchResult struct {
	// ID is the chunk identifier.
	ID string

	// Content is the chunk text.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the chunk metadata as stored.
	Metadata map[string]interface{}
}

// Store is the interface for vector index operations.
//
// Records are immutable once written: there is no update or delete path, and
// a whole document's records are skipped at ingestion time when SourceExists
// reports the source already indexed. Re-ingestion requires clearing the
// persisted directory out-of-band.
type Store interface {
	// AddDocuments embeds and appends the given chunks, all belonging to one
	// source document, and records the source as ingested. It never
	// deduplicates within a call. Returns the stored chunk IDs.
	AddDocuments(ctx context.Context, sourceID string, docs []Document) ([]string, error)

	// Search returns up to k chunks nearest to the query, ordered by
	// similarity (descending). An empty index returns an empty slice, never
	// an error, so the query pipeline can degrade gracefully.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// SourceExists reports whether any record carries the given source
	// identifier. This makes ingestion idempotent per document.
	SourceExists(ctx context.Context, sourceID string) (bool, error)

	// Count returns the number of records in the index.
	Count(ctx context.Context) (int, error)

	// Close releases store resources.
	Close() error
}

// Package embeddings provides local embedding generation for ingestion and
// querying. Both pipelines must share one provider configuration; the
// provider exposes a fingerprint so the vector store can enforce that.
package embeddings

import (
	"errors"

	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// Sentinel errors for embedding operations.
var (
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("invalid embeddings configuration")

	// ErrEmptyInput indicates empty input text.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// Config holds configuration for creating an embedding provider.
type Config struct {
	// Model is the embedding model name.
	// Default: sentence-transformers/all-MiniLM-L6-v2
	Model string `koanf:"model"`

	// CacheDir is the model file cache directory.
	CacheDir string `koanf:"cache_dir"`

	// MaxLength is the maximum input sequence length. Default: 512.
	MaxLength int `koanf:"max_length"`
}

// NewProvider creates an embedding provider from the configuration.
func NewProvider(cfg Config) (Provider, error) {
	return NewFastEmbedProvider(cfg)
}

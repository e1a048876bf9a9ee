package vectorstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("mezand.vectorstore.chromem")

// ChromemConfig holds configuration for the chromem-go embedded vector index.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Created if missing.
	// Default: "data/vector_store"
	Path string `koanf:"path"`

	// Collection is the collection name holding all indexed chunks.
	// Default: "joradp_documents"
	Collection string `koanf:"collection"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = filepath.Join("data", "vector_store")
	}
	if c.Collection == "" {
		c.Collection = "joradp_documents"
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Collection) == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements the Store interface using chromem-go.
//
// chromem-go is an embeddable vector database: in-memory with persistence to
// gob files under the configured path, exact cosine similarity search, no
// external service. State survives process restarts.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
	config   ChromemConfig
	manifest *manifest
	logger   *zap.Logger
}

// NewChromemStore opens (or initializes) the persistent index at the
// configured path.
//
// The sidecar manifest records the embedding fingerprint the index was built
// with; opening with a different embedder configuration returns
// ErrEmbedderMismatch rather than silently producing meaningless similarity
// scores.
func NewChromemStore(config ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", config.Path, err)
	}

	man, err := loadOrCreateManifest(config.Path, embedder.Fingerprint())
	if err != nil {
		return nil, fmt.Errorf("loading index manifest: %w", err)
	}
	if man.Fingerprint != embedder.Fingerprint() {
		return nil, fmt.Errorf("%w: index built with %q, configured embedder is %q",
			ErrEmbedderMismatch, man.Fingerprint, embedder.Fingerprint())
	}

	db, err := chromem.NewPersistentDB(config.Path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	store := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		manifest: man,
		logger:   logger,
	}

	logger.Info("vector store initialized",
		zap.String("path", config.Path),
		zap.String("collection", config.Collection),
		zap.String("embedding_fingerprint", man.Fingerprint),
		zap.Int("sources", len(man.Sources)),
	)

	return store, nil
}

// createEmbeddingFunc adapts the Embedder to chromem's query embedding hook.
func (s *ChromemStore) createEmbeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// collection returns the configured collection, creating it on first use.
func (s *ChromemStore) collection() (*chromem.Collection, error) {
	col, err := s.db.GetOrCreateCollection(s.config.Collection, nil, s.createEmbeddingFunc())
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", s.config.Collection, err)
	}
	return col, nil
}

// AddDocuments embeds the chunks of one source document and appends them to
// the index, then records the source in the manifest.
func (s *ChromemStore) AddDocuments(ctx context.Context, sourceID string, docs []Document) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddDocuments")
	defer span.End()

	span.SetAttributes(
		attribute.String("source", sourceID),
		attribute.Int("document_count", len(docs)),
	)

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}
	if strings.TrimSpace(sourceID) == "" {
		return nil, fmt.Errorf("%w: source id is required", ErrInvalidConfig)
	}

	col, err := s.collection()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		if ids[i] == "" {
			ids[i] = fmt.Sprintf("%s#%04d", sourceID, i)
		}
		texts[i] = doc.Content
	}

	// Embed in batch with the passage-side embedding path.
	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        ids[i],
			Content:   doc.Content,
			Metadata:  convertMetadataToString(doc.Metadata),
			Embedding: embeddings[i],
		}
	}

	// Concurrency of 1 since embeddings are already computed.
	if err := col.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	if err := s.manifest.recordSource(sourceID, len(docs)); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("recording source %s: %w", sourceID, err)
	}

	span.SetAttributes(attribute.Int("documents_added", len(ids)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents to index",
		zap.String("source", sourceID),
		zap.Int("count", len(docs)),
	)

	return ids, nil
}

// Search returns up to k chunks nearest to the query. An empty or absent
// collection yields an empty result set.
func (s *ChromemStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
	defer span.End()

	span.SetAttributes(attribute.Int("k", k))

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	col := s.db.GetCollection(s.config.Collection, s.createEmbeddingFunc())
	if col == nil {
		span.SetStatus(codes.Ok, "collection absent")
		return []SearchResult{}, nil
	}

	// chromem requires nResults <= document count.
	docCount := col.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}
	if k > docCount {
		k = docCount
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: convertMetadataFromString(r.Metadata),
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("searched index",
		zap.Int("k", k),
		zap.Int("results", len(searchResults)),
	)

	return searchResults, nil
}

// SourceExists reports whether the source was already ingested.
func (s *ChromemStore) SourceExists(ctx context.Context, sourceID string) (bool, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.SourceExists")
	defer span.End()

	span.SetAttributes(attribute.String("source", sourceID))
	return s.manifest.hasSource(sourceID), nil
}

// Count returns the number of records in the collection.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	_, span := chromemTracer.Start(ctx, "ChromemStore.Count")
	defer span.End()

	col := s.db.GetCollection(s.config.Collection, s.createEmbeddingFunc())
	if col == nil {
		return 0, nil
	}
	return col.Count(), nil
}

// Close closes the store and releases the embedder when it holds resources.
// chromem-go itself persists on write and needs no teardown.
func (s *ChromemStore) Close() error {
	s.logger.Info("vector store closed")
	if c, ok := s.embedder.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// convertMetadataToString converts metadata to chromem's string map form.
func convertMetadataToString(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = fmt.Sprintf("%d", val)
		case int64:
			result[k] = fmt.Sprintf("%d", val)
		case float64:
			result[k] = fmt.Sprintf("%f", val)
		case bool:
			result[k] = fmt.Sprintf("%t", val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// convertMetadataFromString converts chromem's string map back to metadata.
func convertMetadataFromString(metadata map[string]string) map[string]interface{} {
	if metadata == nil {
		return nil
	}

	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	return result
}

// Ensure ChromemStore implements Store interface.
var _ Store = (*ChromemStore)(nil)

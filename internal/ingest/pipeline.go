// Package ingest walks a directory of source PDFs and loads their chunked
// text into the vector store.
//
// Ingestion is idempotent per source file: a document whose filename is
// already recorded in the store is skipped, so re-running the pipeline over
// the same directory only processes new files. Per-document failures are
// recorded and never abort the batch.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/text"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

const defaultCategory = "General JORADP"

// Extractor extracts plain text from a document file.
type Extractor interface {
	Extract(path string) (string, error)
}

// Chunker splits normalized text into overlapping chunks.
type Chunker interface {
	Split(text string) ([]string, error)
}

// Status is the terminal state of one document in a batch.
type Status string

const (
	// StatusStored means the document's chunks were embedded and persisted.
	StatusStored Status = "stored"

	// StatusSkipped means the document was already in the store, or
	// contained no usable text.
	StatusSkipped Status = "skipped"

	// StatusFailed means extraction, chunking, or storage failed.
	StatusFailed Status = "failed"
)

// Result describes the outcome for one source document.
type Result struct {
	Source string
	Status Status
	Chunks int
	Err    error
}

// Stats aggregates a batch run.
type Stats struct {
	RunID   string
	Total   int
	Stored  int
	Skipped int
	Failed  int
	Chunks  int
	Results []Result
}

// Config holds configuration for the ingestion pipeline.
type Config struct {
	// SourceDir is the directory scanned for *.pdf files.
	SourceDir string `koanf:"source_dir"`

	// Category is attached to every chunk's metadata.
	// Default: "General JORADP".
	Category string `koanf:"category"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.SourceDir == "" {
		c.SourceDir = filepath.Join("data", "joradp_pdfs")
	}
	if c.Category == "" {
		c.Category = defaultCategory
	}
}

// Pipeline ingests source documents into the vector store.
type Pipeline struct {
	config    Config
	extractor Extractor
	chunker   Chunker
	store     vectorstore.Store
	logger    *zap.Logger
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(cfg Config, extractor Extractor, chunker Chunker, store vectorstore.Store, logger *zap.Logger) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		config:    cfg,
		extractor: extractor,
		chunker:   chunker,
		store:     store,
		logger:    logger,
	}, nil
}

// Run processes every PDF in the configured source directory and returns
// batch statistics. One document failing never stops the others.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))

	entries, err := os.ReadDir(p.config.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", p.config.SourceDir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(p.config.SourceDir, e.Name()))
		}
	}
	sort.Strings(paths)

	logger.Info("starting ingestion batch",
		zap.String("source_dir", p.config.SourceDir),
		zap.Int("documents", len(paths)),
	)

	stats := &Stats{RunID: runID, Total: len(paths)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		res := p.processDocument(ctx, logger, path)
		stats.Results = append(stats.Results, res)
		switch res.Status {
		case StatusStored:
			stats.Stored++
			stats.Chunks += res.Chunks
		case StatusSkipped:
			stats.Skipped++
		case StatusFailed:
			stats.Failed++
		}
	}

	logger.Info("ingestion batch complete",
		zap.Int("stored", stats.Stored),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("chunks", stats.Chunks),
	)
	return stats, nil
}

// processDocument runs one file through extract, normalize, chunk, and store.
func (p *Pipeline) processDocument(ctx context.Context, logger *zap.Logger, path string) Result {
	sourceID := filepath.Base(path)
	logger = logger.With(zap.String("source", sourceID))

	exists, err := p.store.SourceExists(ctx, sourceID)
	if err != nil {
		logger.Error("existence check failed", zap.Error(err))
		return Result{Source: sourceID, Status: StatusFailed, Err: err}
	}
	if exists {
		logger.Info("document already ingested, skipping")
		return Result{Source: sourceID, Status: StatusSkipped}
	}

	raw, err := p.extractor.Extract(path)
	if err != nil {
		logger.Error("text extraction failed", zap.Error(err))
		return Result{Source: sourceID, Status: StatusFailed, Err: err}
	}

	normalized := text.Normalize(raw)
	if normalized == "" {
		logger.Warn("document produced no text, skipping")
		return Result{Source: sourceID, Status: StatusSkipped}
	}

	chunks, err := p.chunker.Split(normalized)
	if err != nil {
		logger.Error("chunking failed", zap.Error(err))
		return Result{Source: sourceID, Status: StatusFailed, Err: err}
	}
	if len(chunks) == 0 {
		logger.Warn("document produced no chunks, skipping")
		return Result{Source: sourceID, Status: StatusSkipped}
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = vectorstore.Document{
			ID:      fmt.Sprintf("%s#%04d", sourceID, i),
			Content: chunk,
			Metadata: map[string]interface{}{
				"source":    sourceID,
				"chunk_num": i,
				"category":  p.config.Category,
			},
		}
	}

	if _, err := p.store.AddDocuments(ctx, sourceID, docs); err != nil {
		logger.Error("storing chunks failed", zap.Error(err))
		return Result{Source: sourceID, Status: StatusFailed, Err: err}
	}

	logger.Info("document ingested", zap.Int("chunks", len(docs)))
	return Result{Source: sourceID, Status: StatusStored, Chunks: len(docs)}
}

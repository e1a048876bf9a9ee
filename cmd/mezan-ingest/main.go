// Mezan-ingest loads a directory of JORADP PDF documents into the vector
// store used by the mezand chat backend.
//
// Unlike the server, ingestion fails hard when a component cannot be
// constructed: there is no useful degraded mode for a batch loader.
//
// Usage:
//
//	mezan-ingest -source data/joradp_pdfs
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/chunker"
	"github.com/mezan-dz/mezand/internal/config"
	"github.com/mezan-dz/mezand/internal/embeddings"
	"github.com/mezan-dz/mezand/internal/ingest"
	"github.com/mezan-dz/mezand/internal/logging"
	"github.com/mezan-dz/mezand/internal/pdf"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	sourceDir := flag.String("source", "", "directory of PDF files (overrides config)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Received signal, stopping after current document...")
		cancel()
	}()

	if err := run(ctx, *configPath, *sourceDir); err != nil {
		log.Fatalf("Ingestion error: %v", err)
	}
}

func run(ctx context.Context, configPath, sourceDir string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if sourceDir != "" {
		cfg.Ingest.SourceDir = sourceDir
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	embedder, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}
	defer func() {
		_ = embedder.Close()
	}()

	store, err := vectorstore.NewChromemStore(cfg.Store, embedder, logger)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	splitter, err := chunker.New(cfg.Chunking)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	pipeline, err := ingest.NewPipeline(cfg.Ingest, pdf.NewExtractor(logger), splitter, store, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	stats, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("ingestion finished",
		zap.String("run_id", stats.RunID),
		zap.Int("total", stats.Total),
		zap.Int("stored", stats.Stored),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("chunks", stats.Chunks),
	)

	if count, err := store.Count(ctx); err == nil {
		logger.Info("collection size", zap.Int("chunks", count))
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", stats.Failed, stats.Total)
	}
	return nil
}

// Mezand is the chat backend for the Mezan legal-information assistant.
//
// This binary starts the HTTP server that answers questions about Algerian
// law, grounded in ingested Official Journal (JORADP) documents.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	mezand
//
//	# Configure via environment
//	SERVER_PORT=8080 GEMINI_API_KEY=... mezand
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/config"
	"github.com/mezan-dz/mezand/internal/embeddings"
	"github.com/mezan-dz/mezand/internal/generation"
	"github.com/mezan-dz/mezand/internal/httpapi"
	"github.com/mezan-dz/mezand/internal/logging"
	"github.com/mezan-dz/mezand/internal/rag"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mezand\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
		os.Exit(0)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run starts the mezand server and blocks until context is cancelled.
//
// Component initialization is absence-tolerant: if the vector store or the
// generation client fails to construct, the server still starts and answers
// every query with a fixed degraded-service message. Only configuration,
// logging, and HTTP failures stop startup.
func run(ctx context.Context, configPath string) error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("starting mezand",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	store, generator := initComponents(ctx, cfg, logger)
	defer func() {
		if store != nil {
			_ = store.Close()
		}
	}()

	svc := rag.NewService(cfg.Retrieval, store, generator, nil, logger, rag.NewMetrics(registry))

	srv, err := httpapi.NewServer(cfg.Server, svc, logger, registry)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initComponents builds the vector store and generation client. A component
// that fails to construct is logged and left nil; the query pipeline maps
// its absence to a fixed degraded-service message.
func initComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (vectorstore.Store, generation.Client) {
	var store vectorstore.Store
	embedder, err := embeddings.NewProvider(cfg.Embeddings)
	if err != nil {
		logger.Error("embedding provider unavailable, knowledge base disabled", zap.Error(err))
	} else {
		s, err := vectorstore.NewChromemStore(cfg.Store, embedder, logger)
		if err != nil {
			logger.Error("vector store unavailable, knowledge base disabled", zap.Error(err))
			_ = embedder.Close()
		} else {
			store = s
			count, err := s.Count(ctx)
			if err != nil {
				logger.Warn("could not count indexed chunks", zap.Error(err))
			} else {
				logger.Info("vector store ready", zap.Int("chunks", count))
			}
		}
	}

	var generator generation.Client
	g, err := generation.NewClient(cfg.Generation)
	if err != nil {
		logger.Error("generation client unavailable, model disabled", zap.Error(err))
	} else {
		generator = g
		logger.Info("generation client ready", zap.String("model", cfg.Generation.Model))
	}

	return store, generator
}

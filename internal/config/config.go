// Package config provides configuration loading for mezand.
//
// Configuration is loaded from an optional YAML file, then overridden with
// environment variables. Each section struct lives with the package it
// configures and carries its own defaults and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/mezan-dz/mezand/internal/chunker"
	"github.com/mezan-dz/mezand/internal/embeddings"
	"github.com/mezan-dz/mezand/internal/generation"
	"github.com/mezan-dz/mezand/internal/httpapi"
	"github.com/mezan-dz/mezand/internal/ingest"
	"github.com/mezan-dz/mezand/internal/logging"
	"github.com/mezan-dz/mezand/internal/rag"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// Config holds the complete mezand configuration.
type Config struct {
	Server     httpapi.Config            `koanf:"server"`
	Logging    logging.Config            `koanf:"logging"`
	Store      vectorstore.ChromemConfig `koanf:"store"`
	Embeddings embeddings.Config         `koanf:"embeddings"`
	Generation generation.Config         `koanf:"generation"`
	Chunking   chunker.Config            `koanf:"chunking"`
	Ingest     ingest.Config             `koanf:"ingest"`
	Retrieval  rag.Config                `koanf:"retrieval"`
}

// Load loads configuration from the YAML file at configPath (skipped when
// empty or absent), then overrides with environment variables.
//
// Environment variables map to sections by splitting on the first
// underscore:
//
//	SERVER_PORT          -> server.port
//	STORE_PATH           -> store.path
//	GENERATION_API_KEY   -> generation.api_key
//	EMBEDDINGS_MODEL     -> embeddings.model
//
// GEMINI_API_KEY is also honored as a fallback for generation.api_key.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Split on first underscore only (section.field_name pattern).
	if err := k.Load(env.Provider("", ".", func(s string) string {
		lower := strings.ToLower(s)
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// The conventional Gemini credential variable wins over nothing, loses
	// to an explicit GENERATION_API_KEY or config file value.
	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyDefaults fills unset fields section by section.
func (c *Config) applyDefaults() {
	c.Server.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Store.ApplyDefaults()
	c.Generation.ApplyDefaults()
	c.Chunking.ApplyDefaults()
	c.Ingest.ApplyDefaults()
	c.Retrieval.ApplyDefaults()
}

// Validate checks sections that can be validated without their runtime
// dependencies. The generation credential is checked at client construction
// instead, because a missing key degrades the service rather than stopping
// startup.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	return nil
}

// Package chunker splits normalized document text into overlapping windows
// sized for embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// ErrInvalidConfig indicates invalid chunker configuration.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Config holds chunking parameters.
type Config struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `koanf:"chunk_size"`

	// ChunkOverlap is the number of characters shared between consecutive
	// chunks of the same document. Must be smaller than ChunkSize.
	ChunkOverlap int `koanf:"chunk_overlap"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 150
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative", ErrInvalidConfig)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Chunker splits text recursively, preferring paragraph boundaries, then
// sentences, then raw length, so chunks keep as much local context as the
// size budget allows.
type Chunker struct {
	config   Config
	splitter textsplitter.RecursiveCharacter
}

// New creates a Chunker with the given configuration.
func New(config Config) (*Chunker, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	splitter := textsplitter.NewRecursiveCharacter()
	splitter.ChunkSize = config.ChunkSize
	splitter.ChunkOverlap = config.ChunkOverlap

	return &Chunker{
		config:   config,
		splitter: splitter,
	}, nil
}

// Split splits text into ordered chunks no longer than the configured size,
// each chunk after the first overlapping the previous one by up to the
// configured overlap. Empty input yields an empty slice.
func (c *Chunker) Split(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}

	chunks, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}

	return chunks, nil
}

// ChunkSize returns the configured maximum chunk length.
func (c *Chunker) ChunkSize() int { return c.config.ChunkSize }

// ChunkOverlap returns the configured overlap length.
func (c *Chunker) ChunkOverlap() int { return c.config.ChunkOverlap }

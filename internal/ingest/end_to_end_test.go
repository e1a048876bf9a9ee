package ingest_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/chunker"
	"github.com/mezan-dz/mezand/internal/ingest"
	"github.com/mezan-dz/mezand/internal/pdf"
	"github.com/mezan-dz/mezand/internal/prompt"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// hashEmbedder returns deterministic normalized vectors so the chromem store
// can run without an ONNX model.
type hashEmbedder struct{}

func (hashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashEmbedding(text)
	}
	return out, nil
}

func (hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return hashEmbedding(text), nil
}

func (hashEmbedder) Fingerprint() string { return "test/hash-embedder/dim=8" }

func hashEmbedding(text string) []float32 {
	v := make([]float32, 8)
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	var sumSq float32
	for i := range v {
		v[i] = float32((hash+i)%100) / 100.0
		sumSq += v[i] * v[i]
	}
	if sumSq > 0 {
		norm := float32(1.0) / float32Sqrt(sumSq)
		for i := range v {
			v[i] *= norm
		}
	}
	return v
}

func float32Sqrt(x float32) float32 {
	z := x / 2
	for i := 0; i < 10; i++ {
		z = (z + x/z) / 2
	}
	return z
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	in, err := os.Open(src)
	require.NoError(t, err)
	defer in.Close()
	out, err := os.Create(dst)
	require.NoError(t, err)
	defer out.Close()
	_, err = io.Copy(out, in)
	require.NoError(t, err)
}

// Ingests a real PDF through the full pipeline, retrieves from the persisted
// store, and checks the retrieved chunk's literal text lands in the rendered
// prompt.
func TestIngestThenQuery(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	sourceDir := t.TempDir()
	copyFile(t, filepath.Join("testdata", "sample.pdf"), filepath.Join(sourceDir, "sample.pdf"))

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Collection: "e2e_test",
	}, hashEmbedder{}, logger)
	require.NoError(t, err)
	defer store.Close()

	splitter, err := chunker.New(chunker.Config{})
	require.NoError(t, err)

	pipeline, err := ingest.NewPipeline(
		ingest.Config{SourceDir: sourceDir},
		pdf.NewExtractor(logger),
		splitter,
		store,
		logger,
	)
	require.NoError(t, err)

	stats, err := pipeline.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Stored)
	require.Greater(t, stats.Chunks, 0)

	results, err := store.Search(ctx, "minimum wage", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Content, "Decree 24-101 fixes the national minimum wage.")
	assert.Equal(t, "sample.pdf", results[0].Metadata["source"])

	rendered := prompt.Default.Render(prompt.Values{
		Context:  prompt.FormatContext(results),
		Category: "Labor Law",
		Question: "what fixes the minimum wage?",
	})

	// The retrieved chunk's literal text reaches the assembled prompt.
	assert.Contains(t, rendered, "Decree 24-101 fixes the national minimum wage.")
	assert.Contains(t, rendered, "Source: sample.pdf")
	assert.Contains(t, rendered, "what fixes the minimum wage?")
}

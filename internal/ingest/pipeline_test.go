package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/ingest"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// fakeExtractor maps file basenames to canned text or errors.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (e *fakeExtractor) Extract(path string) (string, error) {
	name := filepath.Base(path)
	if err, ok := e.errs[name]; ok {
		return "", err
	}
	return e.texts[name], nil
}

// fakeChunker splits on blank lines.
type fakeChunker struct{}

func (fakeChunker) Split(text string) ([]string, error) {
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		if part != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks, nil
}

// memStore records added documents in memory.
type memStore struct {
	sources map[string][]vectorstore.Document
	addErr  error
}

func newMemStore() *memStore {
	return &memStore{sources: make(map[string][]vectorstore.Document)}
}

func (s *memStore) AddDocuments(ctx context.Context, sourceID string, docs []vectorstore.Document) ([]string, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.sources[sourceID] = docs
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (s *memStore) Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}

func (s *memStore) SourceExists(ctx context.Context, sourceID string) (bool, error) {
	_, ok := s.sources[sourceID]
	return ok, nil
}

func (s *memStore) Count(ctx context.Context) (int, error) {
	n := 0
	for _, docs := range s.sources {
		n += len(docs)
	}
	return n, nil
}

func (s *memStore) Close() error { return nil }

func writePDFs(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
}

func newPipeline(t *testing.T, dir string, ex ingest.Extractor, store vectorstore.Store) *ingest.Pipeline {
	t.Helper()
	p, err := ingest.NewPipeline(ingest.Config{SourceDir: dir}, ex, fakeChunker{}, store, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "a.pdf", "b.pdf", "notes.txt")

	ex := &fakeExtractor{texts: map[string]string{
		"a.pdf": "first chunk\n\nsecond chunk",
		"b.pdf": "only chunk",
	}}
	store := newMemStore()

	stats, err := newPipeline(t, dir, ex, store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total) // notes.txt ignored
	assert.Equal(t, 2, stats.Stored)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, stats.Chunks)
	assert.NotEmpty(t, stats.RunID)

	docs := store.sources["a.pdf"]
	require.Len(t, docs, 2)
	assert.Equal(t, "a.pdf#0000", docs[0].ID)
	assert.Equal(t, "a.pdf#0001", docs[1].ID)
	assert.Equal(t, "a.pdf", docs[0].Metadata["source"])
	assert.Equal(t, 0, docs[0].Metadata["chunk_num"])
	assert.Equal(t, "General JORADP", docs[0].Metadata["category"])
}

func TestPipeline_SkipsAlreadyIngested(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "a.pdf")

	ex := &fakeExtractor{texts: map[string]string{"a.pdf": "chunk"}}
	store := newMemStore()
	p := newPipeline(t, dir, ex, store)

	stats, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stored)

	// Second run over the same directory skips everything.
	stats, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Stored)
	assert.Equal(t, 1, stats.Skipped)
}

func TestPipeline_FailureDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "bad.pdf", "good.pdf")

	ex := &fakeExtractor{
		texts: map[string]string{"good.pdf": "chunk"},
		errs:  map[string]error{"bad.pdf": errors.New("corrupt file")},
	}
	store := newMemStore()

	stats, err := newPipeline(t, dir, ex, store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Stored)

	require.Len(t, stats.Results, 2)
	assert.Equal(t, ingest.StatusFailed, stats.Results[0].Status)
	assert.Error(t, stats.Results[0].Err)
	assert.Equal(t, ingest.StatusStored, stats.Results[1].Status)
}

func TestPipeline_SkipsEmptyDocuments(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "empty.pdf")

	ex := &fakeExtractor{texts: map[string]string{"empty.pdf": "   \n\n  "}}
	store := newMemStore()

	stats, err := newPipeline(t, dir, ex, store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, store.sources)
}

func TestPipeline_StoreFailure(t *testing.T) {
	dir := t.TempDir()
	writePDFs(t, dir, "a.pdf")

	ex := &fakeExtractor{texts: map[string]string{"a.pdf": "chunk"}}
	store := newMemStore()
	store.addErr = errors.New("disk full")

	stats, err := newPipeline(t, dir, ex, store).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
}

func TestPipeline_MissingSourceDir(t *testing.T) {
	p := newPipeline(t, filepath.Join(t.TempDir(), "missing"), &fakeExtractor{}, newMemStore())

	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestNewPipeline_Validation(t *testing.T) {
	store := newMemStore()

	_, err := ingest.NewPipeline(ingest.Config{}, nil, fakeChunker{}, store, nil)
	assert.Error(t, err)

	_, err = ingest.NewPipeline(ingest.Config{}, &fakeExtractor{}, nil, store, nil)
	assert.Error(t, err)

	_, err = ingest.NewPipeline(ingest.Config{}, &fakeExtractor{}, fakeChunker{}, nil, nil)
	assert.Error(t, err)
}

package rag_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/generation"
	"github.com/mezan-dz/mezand/internal/prompt"
	"github.com/mezan-dz/mezand/internal/rag"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// fakeStore returns canned results or a canned error.
type fakeStore struct {
	results []vectorstore.SearchResult
	err     error
	lastK   int
}

func (s *fakeStore) AddDocuments(ctx context.Context, sourceID string, docs []vectorstore.Document) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeStore) Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	s.lastK = k
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *fakeStore) SourceExists(ctx context.Context, sourceID string) (bool, error) {
	return false, nil
}

func (s *fakeStore) Count(ctx context.Context) (int, error) { return len(s.results), nil }

func (s *fakeStore) Close() error { return nil }

// fakeGenerator captures the prompt and returns a canned reply or error.
type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (g *fakeGenerator) Generate(ctx context.Context, p string) (string, error) {
	g.lastPrompt = p
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newService(store vectorstore.Store, gen generation.Client) *rag.Service {
	return rag.NewService(rag.Config{}, store, gen, nil, zap.NewNop(), nil)
}

func TestAnswer_Success(t *testing.T) {
	store := &fakeStore{
		results: []vectorstore.SearchResult{
			{
				Content: "Article 12 regulates commercial registration.",
				Metadata: map[string]interface{}{
					"source": "joradp_2024_01.pdf", "chunk_num": "4", "category": "General JORADP",
				},
			},
		},
	}
	gen := &fakeGenerator{reply: "Registration is governed by Article 12."}

	svc := newService(store, gen)
	reply := svc.Answer(context.Background(), "how do I register a company?", "Commercial Law")

	assert.Equal(t, "Registration is governed by Article 12.", reply)
	assert.Equal(t, 3, store.lastK)

	// Retrieved passages, category, and question all land in the prompt.
	assert.Contains(t, gen.lastPrompt, "Article 12 regulates commercial registration.")
	assert.Contains(t, gen.lastPrompt, "joradp_2024_01.pdf")
	assert.Contains(t, gen.lastPrompt, "Commercial Law")
	assert.Contains(t, gen.lastPrompt, "how do I register a company?")
}

func TestAnswer_StoreUnavailable(t *testing.T) {
	gen := &fakeGenerator{reply: "should never be called"}
	svc := newService(nil, gen)

	reply := svc.Answer(context.Background(), "question", "category")

	assert.Equal(t, rag.MsgStoreUnavailable, reply)
	assert.Empty(t, gen.lastPrompt)
}

func TestAnswer_GeneratorUnavailable(t *testing.T) {
	svc := newService(&fakeStore{}, nil)

	reply := svc.Answer(context.Background(), "question", "category")

	assert.Equal(t, rag.MsgModelUnavailable, reply)
}

func TestAnswer_SearchFailureDegradesToNoContext(t *testing.T) {
	store := &fakeStore{err: errors.New("index corrupted")}
	gen := &fakeGenerator{reply: "general answer"}

	svc := newService(store, gen)
	reply := svc.Answer(context.Background(), "question", "category")

	require.Equal(t, "general answer", reply)
	assert.Contains(t, gen.lastPrompt, prompt.NoContextSentinel)
}

func TestAnswer_EmptyRetrievalUsesSentinel(t *testing.T) {
	gen := &fakeGenerator{reply: "answer"}
	svc := newService(&fakeStore{}, gen)

	svc.Answer(context.Background(), "question", "category")

	assert.Contains(t, gen.lastPrompt, prompt.NoContextSentinel)
}

func TestAnswer_Blocked(t *testing.T) {
	gen := &fakeGenerator{err: &generation.BlockedError{Reason: "SAFETY"}}
	svc := newService(&fakeStore{}, gen)

	reply := svc.Answer(context.Background(), "question", "category")

	assert.Equal(t, rag.BlockedMessage("SAFETY"), reply)
	assert.Contains(t, reply, "SAFETY")
	assert.Contains(t, reply, "rephrasing")
}

func TestAnswer_EmptyResponse(t *testing.T) {
	gen := &fakeGenerator{err: generation.ErrEmptyResponse}
	svc := newService(&fakeStore{}, gen)

	reply := svc.Answer(context.Background(), "question", "category")

	assert.Equal(t, rag.MsgEmptyResponse, reply)
}

func TestAnswer_GenerationError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset")}
	svc := newService(&fakeStore{}, gen)

	reply := svc.Answer(context.Background(), "question", "category")

	assert.Equal(t, rag.MsgGenericError, reply)
}

// panicGenerator simulates a bug inside the generation client.
type panicGenerator struct{}

func (panicGenerator) Generate(ctx context.Context, p string) (string, error) {
	panic("boom")
}

func TestAnswer_PanicRecovered(t *testing.T) {
	svc := newService(&fakeStore{}, panicGenerator{})

	reply := svc.Answer(context.Background(), "question", "category")

	assert.Equal(t, rag.MsgGenericError, reply)
}

func TestAnswer_CustomTopK(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{reply: "answer"}
	svc := rag.NewService(rag.Config{TopK: 7}, store, gen, nil, zap.NewNop(), nil)

	svc.Answer(context.Background(), "question", "category")

	assert.Equal(t, 7, store.lastK)
}

// Package rag answers user questions by retrieving context from the vector
// store and generating a grounded reply.
//
// Answer never returns an error: every failure inside the pipeline maps to a
// fixed user-facing message, so the transport layer always has a reply to
// serve.
package rag

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mezan-dz/mezand/internal/generation"
	"github.com/mezan-dz/mezand/internal/prompt"
	"github.com/mezan-dz/mezand/internal/vectorstore"
)

// Fixed user-facing messages for degraded and failure paths.
const (
	// MsgStoreUnavailable is returned when the vector store never initialized.
	MsgStoreUnavailable = "Apologies, the knowledge base is currently unavailable. I cannot answer questions at this moment."

	// MsgModelUnavailable is returned when the generation client never
	// initialized.
	MsgModelUnavailable = "Apologies, the AI language model is currently unavailable. I cannot process your request right now."

	// MsgEmptyResponse is returned when the model produced no text.
	MsgEmptyResponse = "Sorry, I received an unexpected empty response from the AI. Please try again."

	// MsgGenericError is returned for any unexpected failure.
	MsgGenericError = "Sorry, I encountered an error while processing your request with the knowledge base."
)

// BlockedMessage formats the reply for a safety-blocked generation.
func BlockedMessage(reason string) string {
	return "Sorry, I couldn't generate a response for that request. " + reason + " Please try rephrasing your question."
}

const defaultTopK = 3

// Config holds configuration for the query pipeline.
type Config struct {
	// TopK is the number of chunks retrieved per query. Default: 3.
	TopK int `koanf:"top_k"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
}

// Service is the query pipeline. Store and generator may be nil when their
// initialization failed at startup; the service then degrades to fixed
// messages instead of refusing to start.
type Service struct {
	store     vectorstore.Store
	generator generation.Client
	template  *prompt.Template
	topK      int
	logger    *zap.Logger
	metrics   *Metrics
}

// NewService creates the query pipeline. A nil store or generator is
// accepted and puts the service in the corresponding degraded mode. A nil
// template selects prompt.Default.
func NewService(cfg Config, store vectorstore.Store, generator generation.Client, template *prompt.Template, logger *zap.Logger, metrics *Metrics) *Service {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if template == nil {
		template = prompt.Default
	}
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}

	return &Service{
		store:     store,
		generator: generator,
		template:  template,
		topK:      cfg.TopK,
		logger:    logger,
		metrics:   metrics,
	}
}

// Answer runs the full pipeline for one question and always returns a
// user-facing reply string.
func (s *Service) Answer(ctx context.Context, message, category string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("query pipeline panicked", zap.Any("panic", r))
			s.metrics.QueriesTotal.WithLabelValues(outcomeError).Inc()
			reply = MsgGenericError
		}
	}()

	if s.store == nil {
		s.logger.Warn("query refused: vector store unavailable")
		s.metrics.QueriesTotal.WithLabelValues(outcomeNoStore).Inc()
		return MsgStoreUnavailable
	}
	if s.generator == nil {
		s.logger.Warn("query refused: generation client unavailable")
		s.metrics.QueriesTotal.WithLabelValues(outcomeNoGenerator).Inc()
		return MsgModelUnavailable
	}

	results, err := s.store.Search(ctx, message, s.topK)
	if err != nil {
		// Degrade to an uncontextualized prompt rather than failing the query.
		s.logger.Error("context retrieval failed", zap.Error(err))
		results = nil
	}
	s.metrics.ChunksQueried.Add(float64(len(results)))
	s.logger.Debug("context retrieved",
		zap.Int("chunks", len(results)),
		zap.String("category", category),
	)

	fullPrompt := s.template.Render(prompt.Values{
		Context:  prompt.FormatContext(results),
		Category: category,
		Question: message,
	})

	text, err := s.generator.Generate(ctx, fullPrompt)
	if err != nil {
		return s.replyForGenerationError(err)
	}

	s.metrics.QueriesTotal.WithLabelValues(outcomeAnswered).Inc()
	return text
}

// replyForGenerationError maps a generation failure to its fixed message.
func (s *Service) replyForGenerationError(err error) string {
	var blocked *generation.BlockedError
	switch {
	case errors.As(err, &blocked):
		s.logger.Warn("generation blocked by safety filters", zap.String("reason", blocked.Reason))
		s.metrics.QueriesTotal.WithLabelValues(outcomeBlocked).Inc()
		return BlockedMessage(blocked.Reason)
	case errors.Is(err, generation.ErrEmptyResponse):
		s.logger.Warn("generation returned empty response")
		s.metrics.QueriesTotal.WithLabelValues(outcomeEmpty).Inc()
		return MsgEmptyResponse
	default:
		s.logger.Error("generation failed", zap.Error(err))
		s.metrics.QueriesTotal.WithLabelValues(outcomeError).Inc()
		return MsgGenericError
	}
}

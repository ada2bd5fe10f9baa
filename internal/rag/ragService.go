package rag

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/internal/metrics"
	"github.com/akolanti/VoiceRAG/internal/rag/llm"
	"github.com/akolanti/VoiceRAG/internal/rag/vectorDB"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/tmc/langchaingo/prompts"
)

// Service is the query side. Callers never see the chain, the index or the model.
type Service interface {
	Answer(ctx context.Context, query string, sessionID string) (string, error)
	// Invalidate drops the cached chain so the next query sees newly ingested documents.
	Invalidate()
}

// chain is immutable once built. A query keeps the chain it started with even if
// Invalidate runs meanwhile.
type chain struct {
	index  vectorDB.Index
	llm    llm.Provider
	memory jobModel.MessageStore
	prompt prompts.PromptTemplate
	topK   int
}

type service struct {
	index             vectorDB.Index
	llmProvider       llm.Provider
	memory            jobModel.MessageStore
	generationTimeout time.Duration
	topK              int

	mu      sync.Mutex
	current *chain

	logger *logger_i.Logger
}

type Config struct {
	Index             vectorDB.Index
	LLM               llm.Provider
	Memory            jobModel.MessageStore
	GenerationTimeout time.Duration
	TopK              int
}

func NewService(cfg Config) Service {
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = config.GenerationTimeout
	}
	if cfg.TopK <= 0 {
		cfg.TopK = config.RetrieverTopK
	}
	return &service{
		index:             cfg.Index,
		llmProvider:       cfg.LLM,
		memory:            cfg.Memory,
		generationTimeout: cfg.GenerationTimeout,
		topK:              cfg.TopK,
		logger:            logger_i.NewLogger("RAGService"),
	}
}

func (s *service) Answer(ctx context.Context, query string, sessionID string) (string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "sessionId", sessionID)

	c, err := s.getChain(ctx)
	if err != nil {
		log.Error("Could not build chain", "error", err)
		return "", err
	}

	history := s.loadHistory(ctx, c, sessionID, log)

	chunks, err := c.retrieve(ctx, query)
	if err != nil {
		log.Error("Retrieval failed", "error", err)
		return "", err
	}

	answer := NoInformationAnswer
	if len(chunks) > 0 {
		answer, err = c.generate(ctx, s.generationTimeout, query, chunks, history)
		if err != nil {
			log.Error("Generation failed", "error", err)
			return "", err
		}
	} else {
		log.Debug("No context retrieved, skipping model call")
	}

	s.saveTurn(ctx, c, sessionID, jobModel.Turn{Question: query, Answer: answer, At: time.Now()}, log)
	return answer, nil
}

func (s *service) Invalidate() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	s.logger.Info("Chain invalidated")
}

// getChain builds the chain at most once per invalidation, even under concurrent queries.
func (s *service) getChain(ctx context.Context) (*chain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current, nil
	}

	if err := s.index.Ready(ctx); err != nil {
		return nil, err
	}
	s.current = &chain{
		index:  s.index,
		llm:    s.llmProvider,
		memory: s.memory,
		prompt: newAnswerPrompt(),
		topK:   s.topK,
	}
	metrics.IncrementChainRebuilds()
	s.logger.Info("Chain rebuilt")
	return s.current, nil
}

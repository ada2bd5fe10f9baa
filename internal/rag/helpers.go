package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/internal/metrics"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

func (c *chain) retrieve(ctx context.Context, query string) ([]commonModels.DocChunk, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	chunks, err := c.index.Retrieve(ctx, query, c.topK)
	if err != nil && !errors.Is(err, apperrors.ErrIndexUnavailable) {
		err = fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	return chunks, err
}

// generate renders the prompt and calls the model under its own deadline. The call runs in
// a goroutine so a provider that ignores ctx still cannot hold the caller past the timeout.
func (c *chain) generate(ctx context.Context, timeout time.Duration, query string, chunks []commonModels.DocChunk, history []jobModel.Turn) (string, error) {
	prompt, err := c.prompt.Format(map[string]any{
		"history":  renderHistory(history),
		"context":  renderContext(chunks),
		"question": query,
	})
	if err != nil {
		return "", fmt.Errorf("%w: rendering prompt: %w", apperrors.ErrGeneration, err)
	}

	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		answer string
		err    error
	}
	resChan := make(chan result, 1)
	go func() {
		answer, err := c.llm.Generate(genCtx, prompt)
		resChan <- result{answer, err}
	}()

	select {
	case r := <-resChan:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return "", apperrors.ErrGenerationTimeout
			}
			return "", fmt.Errorf("%w: %w", apperrors.ErrGeneration, r.err)
		}
		return r.answer, nil
	case <-genCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apperrors.ErrGenerationTimeout
	}
}

// history is best effort, a broken store only costs the conversation its memory
func (s *service) loadHistory(ctx context.Context, c *chain, sessionID string, log *logger_i.Logger) []jobModel.Turn {
	if c.memory == nil || sessionID == "" {
		return nil
	}
	turns, err := c.memory.GetMessageHistory(ctx, sessionID)
	if err != nil {
		log.Warn("Could not load history", "error", err)
		return nil
	}
	return turns
}

func (s *service) saveTurn(ctx context.Context, c *chain, sessionID string, turn jobModel.Turn, log *logger_i.Logger) {
	if c.memory == nil || sessionID == "" {
		return
	}
	if err := c.memory.SaveTurn(ctx, sessionID, turn); err != nil {
		log.Warn("Could not save turn", "error", err)
	}
}

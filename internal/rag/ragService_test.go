package rag

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/VoiceRAG/internal/data/store"
	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/internal/domain/commonModels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockIndex struct {
	OnReady    func(ctx context.Context) error
	OnRetrieve func(ctx context.Context, query string, k int) ([]commonModels.DocChunk, error)
	readyCalls int32
}

func (m *MockIndex) Add(ctx context.Context, chunks []commonModels.DocChunk) error { return nil }

func (m *MockIndex) Retrieve(ctx context.Context, query string, k int) ([]commonModels.DocChunk, error) {
	if m.OnRetrieve != nil {
		return m.OnRetrieve(ctx, query, k)
	}
	return nil, nil
}

func (m *MockIndex) Ready(ctx context.Context) error {
	atomic.AddInt32(&m.readyCalls, 1)
	if m.OnReady != nil {
		return m.OnReady(ctx)
	}
	return nil
}

type MockLLM struct {
	OnGenerate func(ctx context.Context, prompt string) (string, error)
	mu         sync.Mutex
	prompts    []string
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt)
	}
	return "<p>answer</p>", nil
}

func (m *MockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func withChunks(chunks ...string) func(ctx context.Context, query string, k int) ([]commonModels.DocChunk, error) {
	return func(ctx context.Context, query string, k int) ([]commonModels.DocChunk, error) {
		out := make([]commonModels.DocChunk, len(chunks))
		for i, c := range chunks {
			out[i] = commonModels.DocChunk{Chunk: c, ChunkOrder: i, Doc: commonModels.Document{Name: "handbook.pdf"}}
		}
		return out, nil
	}
}

func TestAnswer_NoContextSkipsModel(t *testing.T) {
	llm := &MockLLM{}
	svc := NewService(Config{Index: &MockIndex{}, LLM: llm})

	answer, err := svc.Answer(context.Background(), "what is the wifi password?", "s1")
	require.NoError(t, err)
	assert.Equal(t, NoInformationAnswer, answer)
	assert.Zero(t, llm.calls())
}

func TestAnswer_UsesRetrievedContext(t *testing.T) {
	llm := &MockLLM{}
	svc := NewService(Config{Index: &MockIndex{OnRetrieve: withChunks("Deliveries arrive at dock seven.")}, LLM: llm})

	answer, err := svc.Answer(context.Background(), "Where do deliveries arrive?", "s1")
	require.NoError(t, err)
	assert.Equal(t, "<p>answer</p>", answer)
	require.Equal(t, 1, llm.calls())
	assert.Contains(t, llm.prompts[0], "Deliveries arrive at dock seven.")
	assert.Contains(t, llm.prompts[0], "Where do deliveries arrive?")
	assert.Contains(t, llm.prompts[0], "[handbook.pdf #0]")
}

func TestAnswer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		index   *MockIndex
		llm     *MockLLM
		timeout time.Duration
		wantErr error
	}{
		{
			name:    "index not ready",
			index:   &MockIndex{OnReady: func(ctx context.Context) error { return apperrors.ErrIndexUnavailable }},
			llm:     &MockLLM{},
			wantErr: apperrors.ErrIndexUnavailable,
		},
		{
			name: "retrieval fails",
			index: &MockIndex{OnRetrieve: func(ctx context.Context, q string, k int) ([]commonModels.DocChunk, error) {
				return nil, errors.New("connection refused")
			}},
			llm:     &MockLLM{},
			wantErr: apperrors.ErrIndexUnavailable,
		},
		{
			name:  "model fails",
			index: &MockIndex{OnRetrieve: withChunks("some context")},
			llm: &MockLLM{OnGenerate: func(ctx context.Context, p string) (string, error) {
				return "", errors.New("quota exceeded")
			}},
			wantErr: apperrors.ErrGeneration,
		},
		{
			name:  "model too slow",
			index: &MockIndex{OnRetrieve: withChunks("some context")},
			llm: &MockLLM{OnGenerate: func(ctx context.Context, p string) (string, error) {
				time.Sleep(time.Second)
				return "late", nil
			}},
			timeout: 20 * time.Millisecond,
			wantErr: apperrors.ErrGenerationTimeout,
		},
		{
			name:  "model honours deadline",
			index: &MockIndex{OnRetrieve: withChunks("some context")},
			llm: &MockLLM{OnGenerate: func(ctx context.Context, p string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			}},
			timeout: 20 * time.Millisecond,
			wantErr: apperrors.ErrGenerationTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(Config{Index: tt.index, LLM: tt.llm, GenerationTimeout: tt.timeout})
			_, err := svc.Answer(context.Background(), "question", "s1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnswer_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := &MockLLM{OnGenerate: func(c context.Context, p string) (string, error) {
		cancel()
		<-c.Done()
		return "", c.Err()
	}}
	svc := NewService(Config{Index: &MockIndex{OnRetrieve: withChunks("ctx")}, LLM: llm, GenerationTimeout: time.Minute})

	_, err := svc.Answer(ctx, "question", "s1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, apperrors.ErrGenerationTimeout)
}

func TestGetChain_BuiltOnceUnderConcurrency(t *testing.T) {
	index := &MockIndex{OnReady: func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	}}
	svc := NewService(Config{Index: index, LLM: &MockLLM{}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Answer(context.Background(), "question", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&index.readyCalls))
}

func TestInvalidate_RebuildsOnNextQuery(t *testing.T) {
	index := &MockIndex{}
	svc := NewService(Config{Index: index, LLM: &MockLLM{}})
	ctx := context.Background()

	_, _ = svc.Answer(ctx, "one", "")
	_, _ = svc.Answer(ctx, "two", "")
	assert.Equal(t, int32(1), atomic.LoadInt32(&index.readyCalls))

	svc.Invalidate()
	_, _ = svc.Answer(ctx, "three", "")
	assert.Equal(t, int32(2), atomic.LoadInt32(&index.readyCalls))
}

func TestInvalidate_FailedRebuildIsRetried(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	index := &MockIndex{OnReady: func(ctx context.Context) error {
		if fail.Load() {
			return apperrors.ErrIndexUnavailable
		}
		return nil
	}}
	svc := NewService(Config{Index: index, LLM: &MockLLM{}})

	_, err := svc.Answer(context.Background(), "q", "")
	require.ErrorIs(t, err, apperrors.ErrIndexUnavailable)

	fail.Store(false)
	answer, err := svc.Answer(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, NoInformationAnswer, answer)
}

func TestAnswer_SessionHistory(t *testing.T) {
	memory := store.NewInMemoryMessageStore()
	llm := &MockLLM{OnGenerate: func(ctx context.Context, p string) (string, error) {
		return "<p>reply</p>", nil
	}}
	svc := NewService(Config{Index: &MockIndex{OnRetrieve: withChunks("facts")}, LLM: llm, Memory: memory})
	ctx := context.Background()

	_, err := svc.Answer(ctx, "Who runs the night shift?", "alice")
	require.NoError(t, err)
	_, err = svc.Answer(ctx, "And on weekends?", "alice")
	require.NoError(t, err)
	_, err = svc.Answer(ctx, "Unrelated question", "bob")
	require.NoError(t, err)

	require.Equal(t, 3, llm.calls())
	assert.Contains(t, llm.prompts[0], "(none)")
	assert.Contains(t, llm.prompts[1], "User: Who runs the night shift?")
	assert.False(t, strings.Contains(llm.prompts[2], "night shift"), "sessions must not share history")

	history, err := memory.GetMessageHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "And on weekends?", history[1].Question)
	assert.Equal(t, "<p>reply</p>", history[1].Answer)
}

func TestAnswer_NoInformationIsRemembered(t *testing.T) {
	memory := store.NewInMemoryMessageStore()
	svc := NewService(Config{Index: &MockIndex{}, LLM: &MockLLM{}, Memory: memory})

	_, err := svc.Answer(context.Background(), "anything?", "s1")
	require.NoError(t, err)

	history, _ := memory.GetMessageHistory(context.Background(), "s1")
	require.Len(t, history, 1)
	assert.Equal(t, NoInformationAnswer, history[0].Answer)
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/metrics"
	"github.com/akolanti/VoiceRAG/internal/rag/llm"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

var ErrEmptyResponse = errors.New("model returned an empty response")

type llmClient struct {
	client    *genai.Client
	modelName string
	breaker   *gobreaker.CircuitBreaker
	logger    *logger_i.Logger
}

func NewGeminiClient(ctx context.Context, modelName string, apikey string, httpClient *http.Client) (llm.Provider, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	log := logger_i.NewLogger("llm_gemini")
	log.Info("Gemini client created", "model", modelName)
	return &llmClient{
		client:    c,
		modelName: modelName,
		breaker:   newBreaker("gemini", log),
		logger:    log,
	}, nil
}

func newBreaker(name string, log *logger_i.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.BreakerMaxRequests,
		Interval:    config.BreakerInterval,
		Timeout:     config.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerConsecutiveFails
		},
		// a caller giving up is not a model failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

func (c *llmClient) Generate(ctx context.Context, prompt string) (string, error) {
	log := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	start := time.Now()
	defer func() {
		metrics.CaptureExecutionMetrics("llm", time.Since(start))
	}()

	res, err := c.breaker.Execute(func() (interface{}, error) {
		result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), nil)
		if err != nil {
			return nil, err
		}
		text := result.Text()
		if text == "" {
			return nil, ErrEmptyResponse
		}
		return text, nil
	})
	if err != nil {
		log.Error("Gemini generation failed", "error", err, "elapsed", time.Since(start))
		return "", err
	}
	return res.(string), nil
}

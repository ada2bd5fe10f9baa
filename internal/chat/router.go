package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/VoiceRAG/internal/adapter/utils"
	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/domain/apperrors"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
	"github.com/panjf2000/ants/v2"
)

// Answerer is the query engine as seen by the router.
type Answerer interface {
	Answer(ctx context.Context, query string, sessionID string) (string, error)
}

type Reply struct {
	Reply     string `json:"reply"`
	SessionId string `json:"session_id"`
}

// Router validates chat messages, assigns sessions and runs queries on a bounded pool.
type Router struct {
	engine Answerer
	pool   *ants.Pool
	logger *logger_i.Logger
}

func NewRouter(engine Answerer, poolSize int) (*Router, error) {
	if poolSize <= 0 {
		poolSize = config.ChatPoolSize
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("creating chat pool: %w", err)
	}
	return &Router{engine: engine, pool: pool, logger: logger_i.NewLogger("ChatRouter")}, nil
}

func (r *Router) Handle(ctx context.Context, message string, sessionID string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, fmt.Errorf("%w: message is empty", apperrors.ErrValidation)
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = utils.GetNewUUID()
	}
	log := r.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "sessionId", sessionID)

	type result struct {
		answer string
		err    error
	}
	resChan := make(chan result, 1)
	submitted := make(chan error, 1)
	//Submit blocks while the pool is full, the caller must still be able to leave
	go func() {
		submitted <- r.pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				resChan <- result{err: err}
				return
			}
			answer, err := r.engine.Answer(ctx, message, sessionID)
			resChan <- result{answer, err}
		})
	}()

	for {
		select {
		case err := <-submitted:
			if err != nil {
				log.Error("Chat pool rejected query", "error", err)
				return Reply{}, err
			}
			submitted = nil
		case res := <-resChan:
			if res.err != nil {
				return Reply{}, res.err
			}
			return Reply{Reply: res.answer, SessionId: sessionID}, nil
		case <-ctx.Done():
			log.Warn("Caller went away before the answer", "error", ctx.Err())
			return Reply{}, ctx.Err()
		}
	}
}

func (r *Router) Close() {
	r.pool.Release()
}

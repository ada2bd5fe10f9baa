package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/VoiceRAG/internal/config"
	"github.com/akolanti/VoiceRAG/internal/data/redisStore"
	"github.com/akolanti/VoiceRAG/internal/domain/jobModel"
	"github.com/akolanti/VoiceRAG/pkg/logger_i"
)

const sessionKeyPrefix = "session:"

type RedisMessageStore struct {
	store  *redisStore.Store
	turns  int64
	logger *logger_i.Logger
}

func NewRedisMessageStore(s *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  s,
		turns:  config.HistoryTurns,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) SaveTurn(ctx context.Context, sessionId string, turn jobModel.Turn) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "sessionId", sessionId)
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshalling turn: %w", err)
	}
	if err := s.store.ListPushCapped(ctx, sessionKeyPrefix+sessionId, data, s.turns, config.RedisMessageStoreTTL); err != nil {
		log.Error("Error saving turn", "error", err)
		return err
	}
	log.Debug("Saved turn")
	return nil
}

func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, sessionId string) ([]jobModel.Turn, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "sessionId", sessionId)

	res, err := s.store.ListGetLast(ctx, sessionKeyPrefix+sessionId, s.turns)
	if err != nil {
		log.Error("Error getting history", "error", err)
		return nil, err
	}

	turns := make([]jobModel.Turn, 0, len(res))
	for _, raw := range res {
		var t jobModel.Turn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			log.Warn("Skipping unreadable turn", "error", err)
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}
